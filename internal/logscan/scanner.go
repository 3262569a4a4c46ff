// Package logscan averages validation accuracy per checkpoint from a training log
package logscan

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/time/rate"

	"github.com/lamim/trainkit/internal/config"
)

const maxLineSize = 1024 * 1024

// Options describes which lines to read and where the fields sit
type Options struct {
	Marker       string
	KeyField     int
	ValueField   int
	Strict       bool // Fail on the first malformed line instead of skipping it
	ShowProgress bool
}

// OptionsFromConfig converts the log_scan config section
func OptionsFromConfig(cfg config.LogScanConfig) Options {
	return Options{
		Marker:       cfg.Marker,
		KeyField:     cfg.KeyField,
		ValueField:   cfg.ValueField,
		Strict:       cfg.Strict,
		ShowProgress: cfg.ShowProgress,
	}
}

// Stats counts what the scanner saw
type Stats struct {
	Lines   int `json:"lines"`
	Matched int `json:"matched"`
	Skipped int `json:"skipped"`
}

// Scanner parses validation lines out of a training log
type Scanner struct {
	opts   Options
	logger *slog.Logger
	warn   rate.Sometimes
}

// NewScanner creates a scanner; skipped-line warnings are throttled
func NewScanner(opts Options, logger *slog.Logger) *Scanner {
	return &Scanner{
		opts:   opts,
		logger: logger,
		warn:   rate.Sometimes{First: 5, Interval: 10 * time.Second},
	}
}

// ParseLine extracts the checkpoint key and accuracy from a marker line.
// Tokens are separated by single spaces and stripped of commas.
func (s *Scanner) ParseLine(line string) (string, float64, error) {
	tokens := strings.Split(strings.TrimSpace(line), " ")
	if s.opts.KeyField >= len(tokens) || s.opts.ValueField >= len(tokens) {
		return "", 0, fmt.Errorf("expected at least %d tokens, got %d",
			max(s.opts.KeyField, s.opts.ValueField)+1, len(tokens))
	}

	ckpt, err := strconv.Atoi(strings.Trim(tokens[s.opts.KeyField], ","))
	if err != nil {
		return "", 0, fmt.Errorf("invalid checkpoint index: %w", err)
	}
	acc, err := strconv.ParseFloat(strings.Trim(tokens[s.opts.ValueField], ","), 64)
	if err != nil {
		return "", 0, fmt.Errorf("invalid accuracy: %w", err)
	}
	return strconv.Itoa(ckpt), acc, nil
}

// Scan reads r line by line and accumulates every marker line
func (s *Scanner) Scan(r io.Reader) (*Accumulator, Stats, error) {
	acc := NewAccumulator()
	var stats Stats

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)
	for sc.Scan() {
		stats.Lines++
		line := sc.Text()
		if !strings.Contains(line, s.opts.Marker) {
			continue
		}

		key, value, err := s.ParseLine(line)
		if err != nil {
			if s.opts.Strict {
				return acc, stats, fmt.Errorf("line %d: %w", stats.Lines, err)
			}
			stats.Skipped++
			lineNo := stats.Lines
			s.warn.Do(func() {
				s.logger.Warn("Skipping malformed validation line", "line", lineNo, "error", err)
			})
			continue
		}

		stats.Matched++
		acc.Add(key, value)
	}
	if err := sc.Err(); err != nil {
		return acc, stats, fmt.Errorf("failed to read log: %w", err)
	}

	s.logger.Debug("Log scanned", "lines", stats.Lines, "matched", stats.Matched, "skipped", stats.Skipped)
	return acc, stats, nil
}

// ScanFile scans the log at path, optionally drawing a byte progress bar
func (s *Scanner) ScanFile(path string) (*Accumulator, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("failed to open log: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if s.opts.ShowProgress {
		info, err := f.Stat()
		if err != nil {
			return nil, Stats{}, fmt.Errorf("failed to stat log: %w", err)
		}
		bar := progressbar.DefaultBytes(info.Size(), "Scanning log")
		defer func() { _ = bar.Finish() }()
		r = io.TeeReader(f, bar)
	}

	return s.Scan(r)
}
