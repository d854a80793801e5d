package service

import (
	"context"

	"github.com/okian/elrobot/internal/adapters/bus"
	"github.com/okian/elrobot/internal/adapters/bus/mqttbus"
	"github.com/okian/elrobot/internal/adapters/bus/redisbus"
	"github.com/okian/elrobot/internal/config"
)

// Dial opens the bus session described by cfg. Credentials come from the
// optional driver file.
func Dial(ctx context.Context, cfg *config.Config) (bus.Bus, error) {
	ds, err := config.LoadDriverSettings(cfg.Bus.ConfigFile)
	if err != nil {
		return nil, err
	}

	switch cfg.Bus.Driver {
	case config.DriverMQTT:
		clientID := ds.ClientID
		if clientID == "" && len(cfg.Bus.Listen) > 0 {
			clientID = cfg.Bus.Listen[0]
		}
		return mqttbus.New(ctx, mqttbus.Config{
			Brokers:  cfg.Bus.Connect,
			ClientID: clientID,
			Username: ds.Username,
			Password: ds.Password,
			QoS:      byte(ds.QoS),
		})
	default:
		opts, err := redisbus.ParseEndpoint(cfg.Bus.Connect[0])
		if err != nil {
			return nil, err
		}
		if ds.Username != "" {
			opts.Username = ds.Username
		}
		if ds.Password != "" {
			opts.Password = ds.Password
		}
		if ds.DB != 0 {
			opts.DB = ds.DB
		}
		return redisbus.New(ctx, opts)
	}
}
