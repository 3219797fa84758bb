package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/trendsurf-copilot/internal/config"
	"github.com/jonathan/trendsurf-copilot/internal/server"
)

var (
	servePort   int
	serveConfig string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the JSON API server",
	Long:  `Start an HTTP server that starts pipeline runs, streams their progress over SSE and serves topic suggestions.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config)")
	serveCmd.Flags().StringVar(&serveConfig, "config", "", "Path to JSON config file")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(serveConfig)
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Port = servePort
	}

	srv, err := server.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}

// resolveConfig loads the optional config file, fills defaults and
// applies environment overrides. Flags are applied by the caller.
func resolveConfig(path string) (*config.Config, error) {
	cfg := config.Defaults()
	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded.MergeWithDefaults(config.Defaults())
	}
	cfg.ApplyEnv()
	return &cfg, nil
}
