package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"HealthTwin/internal/domain/models"
	"HealthTwin/internal/services/signal"
)

var (
	genStream   string
	genCount    int
	genSeed     int64
	genInterval time.Duration
)

// generateCmd prints one seeded batch without starting the service.
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Print a batch of synthetic samples as JSON",
	Long: `Generate a batch of samples ending at the current time and print it as JSON.

Use --seed for a reproducible batch.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&genStream, "stream", "s", "ecg", "stream to generate (ecg|eeg)")
	generateCmd.Flags().IntVarP(&genCount, "n", "n", 100, "number of samples")
	generateCmd.Flags().Int64Var(&genSeed, "seed", 0, "random seed (default: time based)")
	generateCmd.Flags().DurationVar(&genInterval, "interval", time.Second, "spacing between samples")
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	if genCount <= 0 {
		return fmt.Errorf("--n must be positive, got %d", genCount)
	}
	opts := []signal.Option{signal.WithInterval(genInterval)}
	if cmd.Flags().Changed("seed") {
		opts = append(opts, signal.WithSeed(genSeed))
	}

	now := time.Now()
	var batch any
	switch models.Stream(genStream) {
	case models.StreamECG:
		batch = signal.NewECGGenerator(opts...).Batch(now, genCount)
	case models.StreamEEG:
		batch = signal.NewEEGGenerator(opts...).Batch(now, genCount)
	default:
		return fmt.Errorf("unknown stream %q", genStream)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(batch)
}
