package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/elrobot/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestLoadDriverSettings(t *testing.T) {
	convey.Convey("Given no driver file", t, func() {
		ds, err := config.LoadDriverSettings("")

		convey.Convey("Then zero settings are returned", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(ds, convey.ShouldResemble, config.DriverSettings{})
		})
	})

	convey.Convey("Given a driver file with credentials", t, func() {
		path := filepath.Join(t.TempDir(), "bus.yaml")
		content := "username: robot\npassword: s3cret\nqos: 1\nclient_id: elrobot-lab\n"
		convey.So(os.WriteFile(path, []byte(content), 0o600), convey.ShouldBeNil)

		ds, err := config.LoadDriverSettings(path)

		convey.Convey("Then every field is read", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(ds.Username, convey.ShouldEqual, "robot")
			convey.So(ds.Password, convey.ShouldEqual, "s3cret")
			convey.So(ds.QoS, convey.ShouldEqual, 1)
			convey.So(ds.ClientID, convey.ShouldEqual, "elrobot-lab")
		})
	})

	convey.Convey("Given a driver file with an impossible QoS", t, func() {
		path := filepath.Join(t.TempDir(), "bus.yaml")
		convey.So(os.WriteFile(path, []byte("qos: 3\n"), 0o600), convey.ShouldBeNil)

		_, err := config.LoadDriverSettings(path)

		convey.Convey("Then it is rejected", func() {
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given a missing driver file", t, func() {
		_, err := config.LoadDriverSettings(filepath.Join(t.TempDir(), "absent.yaml"))

		convey.Convey("Then loading fails", func() {
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		})
	})
}
