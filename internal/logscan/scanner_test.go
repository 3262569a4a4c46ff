package logscan

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lamim/trainkit/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func defaultOptions() Options {
	return OptionsFromConfig(config.DefaultConfig().LogScan)
}

// valLine renders a validation line with the checkpoint index at token 1 and accuracy at token 8
func valLine(ckpt int, acc string) string {
	return fmt.Sprintf("ckpt: %d, Validation-Loss: 1.2345, Validation-Top5: 0.9100, Validation-Top1 = %s, cost: 3s", ckpt, acc)
}

func TestParseLine(t *testing.T) {
	s := NewScanner(defaultOptions(), testLogger())

	key, value, err := s.ParseLine("  " + valLine(12, "0.7500,") + "\n")
	if err != nil {
		t.Fatalf("ParseLine() error = %v", err)
	}
	if key != "12" || value != 0.75 {
		t.Errorf("ParseLine() = %q, %v; want \"12\", 0.75", key, value)
	}
}

func TestParseLineErrors(t *testing.T) {
	s := NewScanner(defaultOptions(), testLogger())

	tests := []struct {
		name string
		line string
		want string
	}{
		{"too few tokens", "ckpt: 1, Validation-Loss: 0.3", "tokens"},
		{"bad key", strings.Replace(valLine(1, "0.5,"), "1,", "one,", 1), "checkpoint index"},
		{"bad value", valLine(1, "high,"), "accuracy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := s.ParseLine(tt.line)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("ParseLine() error = %v, want substring %q", err, tt.want)
			}
		})
	}
}

func TestScanAccumulatesInOrder(t *testing.T) {
	log := strings.Join([]string{
		"epoch 1 step 100 loss 2.3",
		valLine(5, "0.60,"),
		valLine(2, "0.70,"),
		"some unrelated output",
		valLine(5, "0.80,"),
		valLine(2, "0.72,"),
		valLine(9, "0.50,"),
	}, "\n")

	acc, stats, err := NewScanner(defaultOptions(), testLogger()).Scan(strings.NewReader(log))
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if stats.Lines != 7 || stats.Matched != 5 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if got := strings.Join(acc.Order, ","); got != "5,2,9" {
		t.Errorf("Expected insertion order 5,2,9, got %s", got)
	}
	if acc.Counts["5"] != 2 || math.Abs(acc.Sums["5"]-1.4) > 1e-9 {
		t.Errorf("unexpected accumulator for key 5: sum=%v count=%d", acc.Sums["5"], acc.Counts["5"])
	}

	report, err := Summarize(acc, testLogger())
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if len(report.Means) != 3 {
		t.Fatalf("Expected 3 means, got %d", len(report.Means))
	}
	if report.Max.Key != "2" || math.Abs(report.Max.Mean-0.71) > 1e-9 {
		t.Errorf("Expected max mean 0.71 at key 2, got %+v", report.Max)
	}
}

func TestScanStrictFailsOnMalformedLine(t *testing.T) {
	log := valLine(1, "0.5,") + "\n" + "ckpt: 2, Validation-Loss: broken\n"

	_, _, err := NewScanner(defaultOptions(), testLogger()).Scan(strings.NewReader(log))
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("Expected error on line 2, got %v", err)
	}
}

func TestScanLenientSkipsMalformedLines(t *testing.T) {
	opts := defaultOptions()
	opts.Strict = false
	log := valLine(1, "0.5,") + "\n" + "ckpt: 2, Validation-Loss: broken\n" + valLine(1, "0.7,") + "\n"

	acc, stats, err := NewScanner(opts, testLogger()).Scan(strings.NewReader(log))
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if stats.Skipped != 1 || stats.Matched != 2 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if acc.Counts["1"] != 2 {
		t.Errorf("Expected 2 values for key 1, got %d", acc.Counts["1"])
	}
}

func TestScanKeyIsNormalized(t *testing.T) {
	log := strings.Replace(valLine(7, "0.4,"), "7,", "007,", 1) + "\n" + valLine(7, "0.6,")

	acc, _, err := NewScanner(defaultOptions(), testLogger()).Scan(strings.NewReader(log))
	if err != nil {
		t.Fatal(err)
	}
	if len(acc.Order) != 1 || acc.Counts["7"] != 2 {
		t.Errorf("Expected leading zeros to map onto key 7, got order %v counts %v", acc.Order, acc.Counts)
	}
}

func TestScanFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "worker-0.log")
	content := valLine(3, "0.9,") + "\n" + valLine(4, "0.8,") + "\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	acc, stats, err := NewScanner(defaultOptions(), testLogger()).ScanFile(path)
	if err != nil {
		t.Fatalf("ScanFile() error = %v", err)
	}
	if stats.Matched != 2 || len(acc.Order) != 2 {
		t.Errorf("unexpected scan result %+v %v", stats, acc.Order)
	}

	if _, _, err := NewScanner(defaultOptions(), testLogger()).ScanFile(filepath.Join(t.TempDir(), "missing.log")); err == nil {
		t.Error("Expected error for a missing log")
	}
}

func TestSummarizeMean(t *testing.T) {
	acc := &Accumulator{
		Order:  []string{"1"},
		Sums:   map[string]float64{"1": 1.5},
		Counts: map[string]int{"1": 2},
	}

	report, err := Summarize(acc, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if report.Means[0].Mean != 0.75 {
		t.Errorf("Expected mean 0.75, got %v", report.Means[0].Mean)
	}
}

func TestSummarizeMaxAcrossCheckpoints(t *testing.T) {
	acc := NewAccumulator()
	acc.Add("1", 0.5)
	acc.Add("2", 0.9)
	acc.Add("2", 0.7)
	acc.Add("3", 0.6)

	report, err := Summarize(acc, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if report.Max.Key != "2" || math.Abs(report.Max.Mean-0.8) > 1e-9 {
		t.Errorf("Expected max 0.8 at key 2, got %+v", report.Max)
	}
}

func TestSummarizeInconsistentKey(t *testing.T) {
	acc := &Accumulator{
		Order:  []string{"1", "2"},
		Sums:   map[string]float64{"1": 0.4, "2": 1.0},
		Counts: map[string]int{"2": 2},
	}

	report, err := Summarize(acc, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Inconsistent) != 1 || report.Inconsistent[0] != "1" {
		t.Errorf("Expected key 1 reported as inconsistent, got %v", report.Inconsistent)
	}
	if len(report.Means) != 1 || report.Max.Key != "2" {
		t.Errorf("Expected remaining key to be summarized, got %+v", report)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	_, err := Summarize(NewAccumulator(), testLogger())
	if !errors.Is(err, ErrNoCheckpoints) {
		t.Errorf("Expected ErrNoCheckpoints, got %v", err)
	}
}
