package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var (
	configPath  string
	envFile     string
	historyPath string
	dbPath      string
	metricsFile string
	noProgress  bool
	verbose     bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "trainkit",
		Short: "trainkit - training utilities for image classification",
		Long: `trainkit tracks the best checkpoint of a training run, generates
learning-rate schedules and summarizes validation accuracy from training logs.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
	}

	replayCmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay a recorded evaluation history through the tracker",
		Long: `Replay feeds recorded epochs through the evaluation callback:
1. Epochs off the evaluation stride are skipped
2. Each evaluated metric is compared against the running best
3. Improvements replace the best checkpoint on disk
4. The best result is reported at the end`,
		RunE: runReplay,
	}

	replayCmd.Flags().StringVar(&configPath, "config", "trainkit.toml", "Path to configuration file")
	replayCmd.Flags().StringVar(&envFile, "env-file", ".env", "Path to environment file")
	replayCmd.Flags().StringVar(&historyPath, "history", "", "Path to the JSONL evaluation history")
	replayCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile")
	replayCmd.Flags().StringVar(&dbPath, "db", "", "Also record evaluations in this SQLite run store")
	replayCmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the progress bar")
	replayCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	_ = replayCmd.MarkFlagRequired("history")

	lrCmd := &cobra.Command{
		Use:   "lr",
		Short: "Print the configured learning-rate schedule",
		RunE:  printSchedule,
	}
	lrCmd.Flags().StringVar(&configPath, "config", "trainkit.toml", "Path to configuration file")
	lrCmd.Flags().StringVar(&scheduleKind, "kind", "", "Override schedule.kind (cosine or step)")
	lrCmd.Flags().IntVar(&everySteps, "every", 1, "Print every N-th step")

	accuracyCmd := &cobra.Command{
		Use:   "accuracy [log]",
		Short: "Average validation accuracy per checkpoint from a training log",
		Args:  cobra.MaximumNArgs(1),
		RunE:  summarizeAccuracy,
	}
	accuracyCmd.Flags().StringVar(&configPath, "config", "trainkit.toml", "Path to configuration file")
	accuracyCmd.Flags().BoolVar(&lenient, "lenient", false, "Skip malformed validation lines instead of failing")
	accuracyCmd.Flags().BoolVar(&showProgress, "progress", false, "Show a progress bar while reading the log")
	accuracyCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the report as JSON")

	paramsCmd := &cobra.Command{
		Use:   "params <snapshot>",
		Short: "Show weight-decay groups and parameter count of a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE:  showParams,
	}
	paramsCmd.Flags().StringVar(&configPath, "config", "trainkit.toml", "Path to configuration file")

	lossCmd := &cobra.Command{
		Use:   "loss <batch.json>",
		Short: "Compute the label smoothing loss of a batch of logits",
		Args:  cobra.ExactArgs(1),
		RunE:  computeLoss,
	}
	lossCmd.Flags().StringVar(&configPath, "config", "trainkit.toml", "Path to configuration file")

	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "List runs recorded in a SQLite run store",
		RunE:  listRuns,
	}
	runsCmd.Flags().StringVar(&dbPath, "db", "trainkit.db", "Path to the SQLite run store")
	runsCmd.Flags().StringVar(&runID, "run", "", "Show the evaluation history of one run")

	checkpointCmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Manage checkpoints",
		Long:  "Inspect best checkpoints written by the tracker",
	}

	inspectCmd := &cobra.Command{
		Use:   "inspect <path>",
		Short: "Inspect a checkpoint",
		Long:  "Display metadata and tensor summary of a checkpoint file (JSON or protobuf)",
		Args:  cobra.ExactArgs(1),
		RunE:  inspectCheckpoint,
	}

	checkpointCmd.AddCommand(inspectCmd)

	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(lrCmd)
	rootCmd.AddCommand(accuracyCmd)
	rootCmd.AddCommand(paramsCmd)
	rootCmd.AddCommand(lossCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(checkpointCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadEnvFile loads KEY=VALUE pairs from a file into the environment
func loadEnvFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		// Skip comments and empty lines
		if line == "" || line[0] == '#' {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		value = trimQuotes(strings.TrimSpace(value))
		if err := os.Setenv(strings.TrimSpace(key), value); err != nil {
			return err
		}
	}

	return nil
}

func trimQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
