package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/elrobot/internal/adapters/bus"
	"github.com/okian/elrobot/internal/adapters/codec"
	service "github.com/okian/elrobot/internal/app"
	"github.com/okian/elrobot/internal/config"
	"github.com/okian/elrobot/pkg/logger"
)

// vectorsCommand groups the recognition vector maintenance commands.
func vectorsCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vectors",
		Short: "Manage stored recognition vectors",
	}
	cmd.AddCommand(vectorsPutCommand(cfg))
	return cmd
}

func vectorsPutCommand(cfg *config.Config) *cobra.Command {
	var name, num, path string

	cmd := &cobra.Command{
		Use:   "put",
		Short: "Store one recognition vector for a name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			payload, err := os.ReadFile(path) //nolint:gosec // operator supplied path
			if err != nil {
				return fmt.Errorf("failed to read vector: %w", err)
			}
			return putVector(cmd, cfg, name, num, payload)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "identity the vector belongs to")
	cmd.Flags().StringVar(&num, "num", "1", "vector number within the identity")
	cmd.Flags().StringVar(&path, "file", "", "file holding the vector as a JSON array")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// putVector validates the payload and stores it so both the bulk fetch of a
// starting recognizer and live recognizers see it.
func putVector(cmd *cobra.Command, cfg *config.Config, name, num string, payload []byte) error {
	ctx := cmd.Context()
	keys := bus.Keys{Prefix: cfg.Prefix}
	key := keys.Vector(name, num)

	parsed, err := keys.Classify(key)
	if err != nil || parsed.Name != name || parsed.Number != num {
		return fmt.Errorf("invalid vector key %q", key)
	}
	enc, err := codec.DecodeVector(payload)
	if err != nil {
		return err
	}

	b, err := service.Dial(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	if err := b.Store(ctx, key, codec.EncodeVector(enc)); err != nil {
		return fmt.Errorf("failed to store vector: %w", err)
	}
	logger.Get().Info(ctx, "vector stored", logger.String("key", key), logger.Int("dimensions", len(enc)))
	fmt.Fprintln(cmd.OutOrStdout(), key)
	return nil
}
