package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"HealthTwin/internal/di"
	"HealthTwin/pkg/config"
)

var configPath string

// rootCmd runs the service when no subcommand is given.
var rootCmd = &cobra.Command{
	Use:   "healthtwin",
	Short: "Synthetic ECG/EEG monitor with live dashboard API",
	Long: `HealthTwin generates synthetic ECG and EEG streams with injected anomalies,
keeps a sliding window per stream and serves it over HTTP and WebSocket.

Samples can be forwarded to Kafka, ClickHouse or a local SQLite file.`,
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the monitor and the HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config/config.yaml", "config file path")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(generateCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	app, err := di.InitializeApp(cfg)
	if err != nil {
		return fmt.Errorf("app initialization failed: %w", err)
	}

	// Run application (blocks until signal)
	return app.Run(cmd.Context())
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
