package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/elrobot/internal/adapters/codec"
	"github.com/okian/elrobot/pkg/metrics"
)

func execute(args ...string) (string, error) {
	root := RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	convey.Convey("Given the root command", t, func() {
		root := RootCommand()

		convey.Convey("Then it offers both roles and vector maintenance", func() {
			names := []string{}
			for _, c := range root.Commands() {
				names = append(names, c.Name())
			}
			convey.So(names, convey.ShouldContain, "detect")
			convey.So(names, convey.ShouldContain, "recognize")
			convey.So(names, convey.ShouldContain, "vectors")
		})

		convey.Convey("Then the persistent flags are registered", func() {
			for _, name := range []string{"config", "log-level", "prefix", "delay"} {
				convey.So(root.PersistentFlags().Lookup(name), convey.ShouldNotBeNil)
			}
		})
	})

	convey.Convey("Given an invalid flag value", t, func() {
		_, err := execute("detect", "--delay", "-1s")

		convey.Convey("Then validation fails before anything starts", func() {
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.Error(), convey.ShouldContainSubstring, "delay")
		})
	})
}

func TestMetricsSettings(t *testing.T) {
	convey.Convey("Given metrics settings in the environment", t, func() {
		defer metrics.Configure(metrics.WithMetricsEnabled(true), metrics.WithRefreshInterval(10*time.Second))

		mr := miniredis.RunT(t)
		t.Setenv("ELROBOT_BUS__CONNECT", mr.Addr())
		t.Setenv("ELROBOT_METRICS__ENABLED", "false")
		t.Setenv("ELROBOT_METRICS__REFRESH_INTERVAL", "2s")

		path := filepath.Join(t.TempDir(), "v.json")
		convey.So(os.WriteFile(path, []byte("[1]"), 0o600), convey.ShouldBeNil)

		convey.Convey("When any command runs", func() {
			_, err := execute("vectors", "put", "--name", "amy", "--file", path)

			convey.Convey("Then the package metrics follow them", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(metrics.Enabled(), convey.ShouldBeFalse)
				convey.So(metrics.RefreshInterval(), convey.ShouldEqual, 2*time.Second)
			})
		})
	})
}

func TestVectorsPut(t *testing.T) {
	convey.Convey("Given a redis bus and a vector file", t, func() {
		mr := miniredis.RunT(t)
		t.Setenv("ELROBOT_BUS__CONNECT", mr.Addr())

		dir := t.TempDir()
		path := filepath.Join(dir, "arthur.json")
		convey.So(os.WriteFile(path, []byte("[0.25, -0.5, 1]"), 0o600), convey.ShouldBeNil)

		convey.Convey("When the vector is put", func() {
			out, err := execute("vectors", "put", "--prefix", "lab", "--name", "arthur", "--num", "2", "--file", path)

			convey.Convey("Then it is stored under the vectors key range", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(strings.TrimSpace(out), convey.ShouldEndWith, "lab/vectors/arthur/2")

				stored, err := mr.Get("lab/vectors/arthur/2")
				convey.So(err, convey.ShouldBeNil)
				enc, err := codec.DecodeVector([]byte(stored))
				convey.So(err, convey.ShouldBeNil)
				convey.So(enc, convey.ShouldResemble, []float64{0.25, -0.5, 1})
			})
		})

		convey.Convey("When the file is not a vector", func() {
			convey.So(os.WriteFile(path, []byte("arthur"), 0o600), convey.ShouldBeNil)
			_, err := execute("vectors", "put", "--name", "arthur", "--file", path)

			convey.Convey("Then nothing is stored", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(mr.Keys(), convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When the name would escape its key chunk", func() {
			_, err := execute("vectors", "put", "--name", "a/b", "--file", path)

			convey.Convey("Then the key is refused", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(mr.Keys(), convey.ShouldBeEmpty)
			})
		})
	})
}
