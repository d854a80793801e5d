package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/elrobot/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should carry the stock robot values", func() {
			convey.So(cfg.Role, convey.ShouldEqual, config.RoleDetector)
			convey.So(cfg.Delay, convey.ShouldEqual, 50*time.Millisecond)
			convey.So(cfg.Prefix, convey.ShouldEqual, "elrobot")
			convey.So(cfg.Detection.Width, convey.ShouldEqual, 200)
			convey.So(cfg.Detection.Quality, convey.ShouldEqual, 95)
			convey.So(cfg.CmdVel, convey.ShouldEqual, "rt/turtle1/cmd_vel")
			convey.So(cfg.Rosout, convey.ShouldEqual, "rt/rosout")
			convey.So(cfg.LinearScale, convey.ShouldEqual, 10)
			convey.So(cfg.AngularScale, convey.ShouldEqual, 100)
			convey.So(cfg.NamedIdentities, convey.ShouldHaveLength, 4)
			convey.So(cfg.Ingest.Workers, convey.ShouldEqual, 1)
			convey.So(cfg.Bus.Mode, convey.ShouldEqual, config.ModePeer)
			convey.So(cfg.Metrics.Enabled, convey.ShouldBeTrue)
			convey.So(cfg.Metrics.RefreshInterval, convey.ShouldEqual, 10*time.Second)
		})

		convey.Convey("Then it should validate", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then geometry thresholds should match the stock engine", func() {
			g := cfg.GeometryThresholds()
			convey.So(g.Center, convey.ShouldEqual, 250)
			convey.So(g.OffAxis, convey.ShouldEqual, 75)
			convey.So(g.Near, convey.ShouldEqual, 90)
			convey.So(g.Far, convey.ShouldEqual, 70)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New()

		convey.Convey("When the role is unknown", func() {
			cfg.Role = "pilot"
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When a named identity has an unknown direction", func() {
			cfg.NamedIdentities = map[string]string{"arthur": "up"}
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the quality is out of range", func() {
			cfg.Detection.Quality = 101
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When far exceeds near", func() {
			cfg.Geometry.Far = 100
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the bus driver is unknown", func() {
			cfg.Bus.Driver = "zenoh"
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the helper backend has no command", func() {
			cfg.Detection.HelperCommand = nil
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the bus mode is unknown", func() {
			cfg.Bus.Mode = "router"
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the client mode is chosen", func() {
			cfg.Bus.Mode = config.ModeClient
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("When listen endpoints are given", func() {
			cfg.Bus.Listen = []string{"elrobot-lab"}

			convey.Convey("Then the redis driver refuses them", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})

			convey.Convey("Then the mqtt driver accepts them", func() {
				cfg.Bus.Driver = config.DriverMQTT
				convey.So(cfg.Validate(), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the metrics refresh interval is not positive", func() {
			cfg.Metrics.RefreshInterval = 0
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}
