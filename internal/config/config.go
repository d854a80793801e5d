// Package config defines process configuration structures and loading hooks.
//
// Conventions:
//   - New() builds a Config holding the stock values of the robot.
//   - Load layers a YAML file and ELROBOT_ environment variables on top.
//   - The resulting value is treated as immutable and handed to each
//     component constructor; there is no package-level config.
package config

import (
	"time"
)

// Roles a process can run as.
const (
	RoleDetector   = "detector"
	RoleRecognizer = "recognizer"
)

// Bus drivers.
const (
	DriverRedis = "redis"
	DriverMQTT  = "mqtt"
)

// Detection backends.
const (
	BackendHelper  = "helper"
	BackendCascade = "cascade"
)

// Config contains process configuration.
type Config struct {
	// Role selects the tick behaviour: detector or recognizer.
	Role string `koanf:"role"`

	// Delay is the sleep between two control loop ticks.
	Delay time.Duration `koanf:"delay"`

	// Prefix is the first chunk of every bus key.
	Prefix string `koanf:"prefix"`

	Bus         BusConfig         `koanf:"bus"`
	Detection   DetectionConfig   `koanf:"detection"`
	Recognition RecognitionConfig `koanf:"recognition"`

	// NamedIdentities maps a label to a direction: forward, backward, left, right.
	NamedIdentities map[string]string `koanf:"named_identities"`

	// CmdVel is the velocity command topic, Rosout the log topic.
	CmdVel string `koanf:"cmd_vel"`
	Rosout string `koanf:"rosout"`

	AngularScale float64 `koanf:"angular_scale"`
	LinearScale  float64 `koanf:"linear_scale"`

	Geometry GeometryConfig `koanf:"geometry"`
	Ingest   IngestConfig   `koanf:"ingest"`
	HTTP     HTTPConfig     `koanf:"http"`
	Metrics  MetricsConfig  `koanf:"metrics"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`
}

// Bus modes.
const (
	ModePeer   = "peer"
	ModeClient = "client"
)

// BusConfig describes the pub/sub session.
type BusConfig struct {
	// Driver is redis or mqtt.
	Driver string `koanf:"driver"`
	// Mode is peer or client. Both drivers reach peers through a broker, so
	// the two behave the same; the value is validated and logged.
	Mode string `koanf:"mode"`
	// Connect lists endpoints to dial, e.g. "localhost:6379" or "tcp://broker:1883".
	Connect []string `koanf:"connect"`
	// Listen is mqtt only: a broker has no listening side for a client, so
	// the first entry names the session and becomes the MQTT client id when
	// the driver file sets none. The redis driver rejects it.
	Listen []string `koanf:"listen"`
	// ConfigFile is an optional YAML file with driver specific settings.
	ConfigFile string `koanf:"config_file"`
	// GetTimeout bounds the bulk fetch of stored keys.
	GetTimeout time.Duration `koanf:"get_timeout"`
}

// DetectionConfig configures the detection adapter.
type DetectionConfig struct {
	// Width is the target crop width in pixels.
	Width int `koanf:"width"`
	// Quality is the JPEG quality of published crops, 1..100.
	Quality int `koanf:"quality"`
	// Cascade is the Haar cascade file used by the cascade backend.
	Cascade string `koanf:"cascade"`
	// Backend is helper or cascade.
	Backend string `koanf:"backend"`
	// HelperCommand is the argv of the helper process.
	HelperCommand []string `koanf:"helper_command"`
}

// RecognitionConfig configures the recognition adapter.
type RecognitionConfig struct {
	Enabled       bool          `koanf:"enabled"`
	Tolerance     float64       `koanf:"tolerance"`
	PublishLabels bool          `koanf:"publish_labels"`
	CacheTTL      time.Duration `koanf:"cache_ttl"`
}

// GeometryConfig holds the geometry thresholds.
type GeometryConfig struct {
	Center  int `koanf:"center"`
	OffAxis int `koanf:"off_axis"`
	Near    int `koanf:"near"`
	Far     int `koanf:"far"`
}

// IngestConfig bounds the inbound sample pipeline.
type IngestConfig struct {
	QueueSize int `koanf:"queue_size"`
	// Workers is the number of store writers. Samples are sharded by key,
	// so every key still has a single writer.
	Workers int `koanf:"workers"`
}

// HTTPConfig configures the health and metrics endpoint.
type HTTPConfig struct {
	// Addr is the listen address; empty disables the server.
	Addr string `koanf:"addr"`
}

// MetricsConfig controls metric recording.
type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`
	// RefreshInterval paces polled gauges: store sizes and process stats.
	RefreshInterval time.Duration `koanf:"refresh_interval"`
}

// New creates a Config with the stock values.
func New() *Config {
	return &Config{
		Role:   RoleDetector,
		Delay:  50 * time.Millisecond,
		Prefix: "elrobot",
		Bus: BusConfig{
			Driver:     DriverRedis,
			Mode:       ModePeer,
			Connect:    []string{"localhost:6379"},
			GetTimeout: 5 * time.Second,
		},
		Detection: DetectionConfig{
			Width:         200,
			Quality:       95,
			Cascade:       "haarcascade_frontalface_default.xml",
			Backend:       BackendHelper,
			HelperCommand: []string{"elrobot-vision"},
		},
		Recognition: RecognitionConfig{
			Enabled:       false,
			Tolerance:     0.6,
			PublishLabels: true,
			CacheTTL:      30 * time.Second,
		},
		NamedIdentities: map[string]string{
			"arthur":    "forward",
			"sacha":     "backward",
			"nicolas":   "left",
			"alejandra": "right",
		},
		CmdVel:       "rt/turtle1/cmd_vel",
		Rosout:       "rt/rosout",
		AngularScale: 100,
		LinearScale:  10,
		Geometry: GeometryConfig{
			Center:  250,
			OffAxis: 75,
			Near:    90,
			Far:     70,
		},
		Ingest: IngestConfig{
			QueueSize: 4096,
			Workers:   1,
		},
		HTTP: HTTPConfig{
			Addr: ":9090",
		},
		Metrics: MetricsConfig{
			Enabled:         true,
			RefreshInterval: 10 * time.Second,
		},
		LogLevel:  "info",
		LogFormat: "text",
	}
}
