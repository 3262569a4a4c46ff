package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lamim/trainkit/internal/store"
)

var runID string

// listRuns prints the runs in a run store, or the history of one run
func listRuns(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(dbPath); err != nil {
		return fmt.Errorf("run store not found: %s", dbPath)
	}

	db, err := store.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open run store: %w", err)
	}
	defer db.Close()

	if runID != "" {
		return printRunHistory(db, runID)
	}

	runs, err := db.ListRuns()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	fmt.Printf("%-38s %-8s %-6s %-12s %-6s %s\n", "RUN", "METRIC", "EVALS", "BEST", "EPOCH", "STARTED")
	fmt.Println(strings.Repeat("-", 100))
	for _, r := range runs {
		best, epoch := "N/A", "N/A"
		if r.HasBest {
			best = fmt.Sprintf("%.6f", r.BestValue)
			epoch = fmt.Sprintf("%d", r.BestEpoch)
		}
		fmt.Printf("%-38s %-8s %-6d %-12s %-6s %s\n",
			r.RunID, r.MetricName, r.Evaluated, best, epoch, r.StartedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func printRunHistory(db *store.Store, id string) error {
	entries, err := db.Evaluations(id)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Printf("No evaluations recorded for run %s.\n", id)
		return nil
	}

	fmt.Printf("%-8s %-12s %-9s %s\n", "EPOCH", "METRIC", "IMPROVED", "BEST")
	fmt.Println(strings.Repeat("-", 50))
	for _, e := range entries {
		fmt.Printf("%-8d %-12.6f %-9t %.6f (epoch %d)\n", e.Epoch, e.Metric, e.Improved, e.BestValue, e.BestEpoch)
	}
	return nil
}
