package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lamim/trainkit/internal/checkpoint"
	"github.com/lamim/trainkit/internal/config"
	"github.com/lamim/trainkit/internal/logscan"
	"github.com/lamim/trainkit/internal/loss"
	"github.com/lamim/trainkit/internal/params"
	"github.com/lamim/trainkit/internal/schedule"
)

var (
	scheduleKind string
	everySteps   int
	lenient      bool
	showProgress bool
	jsonOutput   bool
)

func cliLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

// printSchedule prints the learning rate of every N-th step
func printSchedule(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if scheduleKind != "" {
		cfg.Schedule.Kind = scheduleKind
	}
	if everySteps < 1 {
		return fmt.Errorf("--every must be at least 1")
	}

	sched, err := schedule.FromConfig(cfg.Schedule)
	if err != nil {
		return err
	}
	lrs, err := sched.Steps()
	if err != nil {
		return fmt.Errorf("failed to generate %s schedule: %w", sched.Name(), err)
	}

	fmt.Printf("Schedule: %s (%d steps)\n", sched.Name(), len(lrs))
	fmt.Printf("%-10s %s\n", "STEP", "LR")
	fmt.Println(strings.Repeat("-", 30))
	for i := 0; i < len(lrs); i += everySteps {
		fmt.Printf("%-10d %.8f\n", i, lrs[i])
	}
	return nil
}

// summarizeAccuracy scans a training log and prints the mean accuracy per checkpoint
func summarizeAccuracy(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	path := cfg.LogScan.Path
	if len(args) == 1 {
		path = args[0]
	}
	if path == "" {
		return fmt.Errorf("no log given (pass a path or set log_scan.path)")
	}

	opts := logscan.OptionsFromConfig(cfg.LogScan)
	if lenient {
		opts.Strict = false
	}
	if showProgress {
		opts.ShowProgress = true
	}

	logger := cliLogger()
	acc, stats, err := logscan.NewScanner(opts, logger).ScanFile(path)
	if err != nil {
		return err
	}

	report, err := logscan.Summarize(acc, logger)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	if jsonOutput {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("Scanned %d lines, %d validation lines, %d skipped\n", stats.Lines, stats.Matched, stats.Skipped)
	fmt.Println()
	fmt.Printf("%-12s %-12s %-8s %s\n", "CHECKPOINT", "SUM", "COUNT", "MEAN")
	fmt.Println(strings.Repeat("-", 50))
	for _, m := range report.Means {
		fmt.Printf("%-12s %-12.4f %-8d %.4f\n", m.Key, m.Sum, m.Count, m.Mean)
	}
	fmt.Println()
	if len(report.Inconsistent) > 0 {
		fmt.Printf("Inconsistent checkpoints: %s\n", strings.Join(report.Inconsistent, ", "))
	}
	fmt.Printf("max mean acc: %.4f (checkpoint %s)\n", report.Max.Mean, report.Max.Key)
	return nil
}

// showParams prints the weight-decay groups of a snapshot
func showParams(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	snap, err := checkpoint.Load(args[0])
	if err != nil {
		return err
	}

	ps := snap.Parameters()
	groups := params.AddWeightDecay(ps, cfg.WeightDecay.Value, cfg.WeightDecay.SkipList)

	fmt.Printf("Parameters: %d tensors, %d values\n", len(ps), params.CountParams(ps))
	fmt.Println()
	for i, g := range groups {
		fmt.Printf("Group %d (weight_decay=%g): %d tensors, %d values\n",
			i, g.WeightDecay, len(g.Params), params.CountParams(g.Params))
		for _, p := range g.Params {
			fmt.Printf("  %-40s %v\n", p.Name, p.Shape)
		}
	}
	return nil
}

// inspectCheckpoint displays metadata and a tensor summary of a checkpoint file
func inspectCheckpoint(cmd *cobra.Command, args []string) error {
	path := args[0]

	if !checkpoint.Exists(path) {
		return fmt.Errorf("checkpoint not found: %s", path)
	}

	snap, err := checkpoint.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load checkpoint: %w", err)
	}

	fmt.Printf("Checkpoint Information for: %s\n", path)
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Run ID:              %s\n", snap.Metadata.RunID)
	fmt.Printf("Framework:           %s\n", snap.Metadata.Framework)
	fmt.Printf("Created At:          %s\n", snap.Metadata.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Epoch:               %d\n", snap.Metadata.Epoch)
	fmt.Printf("Metric:              %v\n", snap.Metadata.Metric)
	fmt.Println()

	fmt.Println("Tensors:")
	fmt.Printf("  Count:             %d\n", checkpoint.GetTensorCount(snap))
	fmt.Printf("  Values:            %d\n", checkpoint.GetElementCount(snap))

	if problems := checkpoint.ValidateSnapshot(snap); len(problems) > 0 {
		fmt.Println()
		fmt.Println("Problems:")
		for _, p := range problems {
			fmt.Printf("  - %s\n", p)
		}
	}

	return nil
}

// lossBatch is the input of the loss command
type lossBatch struct {
	Logits [][]float64 `json:"logits"`
	Labels []int       `json:"labels"`
}

// computeLoss evaluates the configured label smoothing loss on a JSON batch
func computeLoss(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read batch: %w", err)
	}
	var batch lossBatch
	if err := json.Unmarshal(data, &batch); err != nil {
		return fmt.Errorf("failed to parse batch: %w", err)
	}

	l, err := loss.FromConfig(cfg.Loss)
	if err != nil {
		return err
	}
	value, err := l.Forward(batch.Logits, batch.Labels)
	if err != nil {
		return err
	}

	fmt.Printf("loss: %.6f (smooth_factor=%g, num_classes=%d, batch=%d)\n",
		value, l.SmoothFactor, l.NumClasses, len(batch.Labels))
	return nil
}
