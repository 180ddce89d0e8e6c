package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bloodconnect/backend/internal/app"
	"github.com/bloodconnect/backend/internal/infrastructure/observability"
	"github.com/bloodconnect/backend/pkg/config"
)

// Execute runs the operator CLI
func Execute(ctx context.Context) {
	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "dispatchctl",
		Short:         "Blood bank delivery operator tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			observability.InitLogger("dispatchctl", cfg.Environment)
			cmd.SetContext(withConfig(cmd.Context(), cfg))
			return nil
		},
	}

	rootCmd.AddCommand(
		newGeocodeCmd(),
		newNearestCmd(),
		newRouteCmd(),
		newMigrateCmd(),
		newSeedCmd(),
	)
	return rootCmd
}

type configKey struct{}

func withConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

func configFrom(cmd *cobra.Command) *config.Config {
	cfg, _ := cmd.Context().Value(configKey{}).(*config.Config)
	return cfg
}

// withContainer wires the services for the duration of fn
func withContainer(cmd *cobra.Command, fn func(*app.Container) error) error {
	container, err := app.Build(cmd.Context(), configFrom(cmd), nil)
	if err != nil {
		return err
	}
	defer container.Close()
	return fn(container)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
