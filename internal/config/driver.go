package config

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DriverSettings are the bus driver options kept out of the main file,
// typically credentials. Zero values leave the driver defaults in place.
type DriverSettings struct {
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	// DB selects the Redis database.
	DB int `koanf:"db"`
	// QoS is the MQTT quality of service, 0..2.
	QoS int `koanf:"qos"`
	// ClientID overrides the MQTT client id.
	ClientID string `koanf:"client_id"`
}

// LoadDriverSettings reads the driver file named by bus.config_file. An
// empty path yields zero settings.
func LoadDriverSettings(path string) (DriverSettings, error) {
	var ds DriverSettings
	if path == "" {
		return ds, nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return ds, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
	}
	if err := k.UnmarshalWithConf("", &ds, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return ds, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
	}
	if ds.QoS < 0 || ds.QoS > 2 {
		return ds, fmt.Errorf("%w: qos %d must be within 0..2", ErrInvalidConfig, ds.QoS)
	}
	if ds.DB < 0 {
		return ds, fmt.Errorf("%w: db must not be negative", ErrInvalidConfig)
	}
	return ds, nil
}
