package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lamim/trainkit/internal/checkpoint"
	"github.com/lamim/trainkit/internal/config"
	"github.com/lamim/trainkit/internal/metrics"
	"github.com/lamim/trainkit/internal/replay"
	"github.com/lamim/trainkit/internal/session"
	"github.com/lamim/trainkit/internal/store"
	"github.com/lamim/trainkit/internal/tracker"
)

func runReplay(cmd *cobra.Command, args []string) error {
	if envFile != "" {
		if err := loadEnvFile(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				fmt.Fprintf(os.Stderr, "Warning: failed to load env file: %v\n", err)
			}
		} else if verbose {
			fmt.Fprintf(os.Stderr, "Loaded env file: %s\n", envFile)
		}
	}

	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	format, err := checkpoint.ParseFormat(cfg.Tracker.CheckpointFormat)
	if err != nil {
		return err
	}
	saver := checkpoint.NewSaver(format, slog.Default())

	run, err := session.NewRun(cfg.Tracker.CkptDirectory, saver.RunID(), slog.Default())
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}

	logger, logFile, err := session.SetupLogger(run, logLevel)
	if err != nil {
		return fmt.Errorf("failed to setup logger: %w", err)
	}
	defer func() {
		if logFile != nil {
			_ = logFile.Sync()
			_ = logFile.Close()
		}
	}()
	run.SetLogger(logger)
	saver.SetLogger(logger)

	logger.Info("trainkit replay starting",
		"version", Version,
		"config", configPath,
		"history", historyPath,
		"ckpt_dir", run.Dir(),
		"format", format)

	if _, err := os.Stat(configPath); err == nil {
		if err := run.BackupConfig(configPath); err != nil {
			return fmt.Errorf("failed to backup config: %w", err)
		}
	}

	records, err := replay.ReadHistoryFile(historyPath)
	if err != nil {
		return err
	}

	collector := metrics.NewCollector(logger)
	tr, err := tracker.New(cfg.Tracker, saver, logger, collector)
	if err != nil {
		return fmt.Errorf("failed to create tracker: %w", err)
	}

	history, err := session.NewHistoryWriter(run, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := history.Close(); err != nil {
			logger.Error("failed to close history writer", "error", err)
		}
	}()

	sinks := []replay.HistorySink{history}
	if dbPath != "" {
		db, err := store.NewStore(dbPath)
		if err != nil {
			return fmt.Errorf("failed to open run store: %w", err)
		}
		defer db.Close()

		if err := db.StartRun(run.ID(), tr.MetricName(), tr.Path()); err != nil {
			return err
		}
		defer func() {
			if err := db.FinishRun(run.ID()); err != nil {
				logger.Error("failed to finish run in store", "error", err)
			}
		}()
		sinks = append(sinks, db.Sink(run.ID()))
		logger.Info("Recording evaluations", "db", dbPath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := replay.NewRunner(tr, logger, !noProgress, sinks...).Run(ctx, records)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("Replay interrupted", "best_path", tr.Path())
		}
		return err
	}

	fmt.Println(result.Summary)

	if metricsFile != "" {
		if err := collector.WriteTextfile(metricsFile); err != nil {
			return err
		}
	}

	return nil
}
