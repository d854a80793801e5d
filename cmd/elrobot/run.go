package main

import (
	"fmt"

	"github.com/spf13/cobra"

	service "github.com/okian/elrobot/internal/app"
	"github.com/okian/elrobot/internal/config"
	"github.com/okian/elrobot/pkg/logger"
)

var roleDescriptions = map[string]struct{ use, short string }{
	config.RoleDetector:   {"detect", "Detect faces on camera frames and steer towards them"},
	config.RoleRecognizer: {"recognize", "Identify published faces and steer by identity or geometry"},
}

// roleCommand builds the subcommand running one role until interrupted.
func roleCommand(role string, cfg *config.Config) *cobra.Command {
	d := roleDescriptions[role]
	return &cobra.Command{
		Use:   d.use,
		Short: d.short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg.Role = role
			return runRole(cmd, cfg)
		},
	}
}

func runRole(cmd *cobra.Command, cfg *config.Config) error {
	ctx := cmd.Context()
	log := logger.Get().Named(cfg.Role)

	svc := service.New(service.WithConfig(cfg), service.WithLogger(log))
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start %s: %w", cfg.Role, err)
	}
	defer svc.Stop()

	// Start system metrics updater
	go startSystemMetricsUpdater(ctx)

	if err := svc.Run(ctx); err != nil {
		return fmt.Errorf("%s stopped: %w", cfg.Role, err)
	}
	log.Info(ctx, "shutting down", logger.Any("stats", svc.GetStats()))
	return nil
}
