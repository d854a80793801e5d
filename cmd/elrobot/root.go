package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/elrobot/internal/config"
	"github.com/okian/elrobot/pkg/logger"
	"github.com/okian/elrobot/pkg/metrics"
)

// Version is the application version.
const Version = "0.1.0"

// flags holds the persistent flag values shared by all subcommands.
type flags struct {
	configPath string
	logLevel   string
	prefix     string
	delay      time.Duration
}

// RootCommand creates the elrobot command tree.
func RootCommand() *cobra.Command {
	f := &flags{}
	// Subcommands share cfg; it is filled in before any of them runs.
	cfg := config.New()

	rootCmd := &cobra.Command{
		Use:           "elrobot",
		Short:         "Steer a robot towards the faces its cameras see",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			*cfg = *loaded
			metrics.Configure(
				metrics.WithMetricsEnabled(cfg.Metrics.Enabled),
				metrics.WithRefreshInterval(cfg.Metrics.RefreshInterval),
			)
			return initLogging(cmd, cfg)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "YAML config file (default $ELROBOT_CONFIG)")
	pf.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&f.prefix, "prefix", "", "bus key prefix")
	pf.DurationVar(&f.delay, "delay", 0, "delay between control loop ticks")

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
	rootCmd.AddCommand(
		roleCommand(config.RoleDetector, cfg),
		roleCommand(config.RoleRecognizer, cfg),
		vectorsCommand(cfg),
	)
	return rootCmd
}

// loadConfig layers the persistent flags over defaults, file and env.
func loadConfig(cmd *cobra.Command, f *flags) (*config.Config, error) {
	cfg, err := config.Load(cmd.Context(), f.configPath)
	if err != nil {
		return nil, err
	}

	pf := cmd.Flags()
	if pf.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if pf.Changed("prefix") {
		cfg.Prefix = f.prefix
	}
	if pf.Changed("delay") {
		cfg.Delay = f.delay
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func initLogging(cmd *cobra.Command, cfg *config.Config) error {
	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithOutput(cmd.ErrOrStderr())); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(cmd.Context(), "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return nil
}
