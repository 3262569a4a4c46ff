package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
)

const (
	// MaxMetricsNameLength is the maximum allowed length for the metric name
	MaxMetricsNameLength = 64

	// MaxMarkerLength is the maximum allowed length for the log marker
	MaxMarkerLength = 256

	// MaxSkipListSize is the maximum number of entries in weight_decay.skip_list
	MaxSkipListSize = 4096
)

// ValidateInputs performs additional validation on user-controllable strings
func (c *Config) ValidateInputs() error {
	if err := validateCkptName(c.Tracker.BestCkptName); err != nil {
		return fmt.Errorf("invalid best_ckpt_name: %w", err)
	}

	if err := validateLabel(c.Tracker.MetricsName, MaxMetricsNameLength); err != nil {
		return fmt.Errorf("invalid metrics_name: %w", err)
	}

	if err := validateLabel(c.LogScan.Marker, MaxMarkerLength); err != nil {
		return fmt.Errorf("invalid log_scan.marker: %w", err)
	}

	if len(c.WeightDecay.SkipList) > MaxSkipListSize {
		return fmt.Errorf("weight_decay.skip_list exceeds maximum size of %d (got %d)",
			MaxSkipListSize, len(c.WeightDecay.SkipList))
	}

	return nil
}

// validateCkptName ensures the checkpoint name stays inside ckpt_directory
func validateCkptName(name string) error {
	if name == "" {
		return fmt.Errorf("must not be empty")
	}
	if containsControlChars(name) {
		return fmt.Errorf("contains invalid control characters")
	}
	if strings.ContainsAny(name, `/\`) || name != filepath.Base(name) {
		return fmt.Errorf("must be a file name, not a path (got %q)", name)
	}
	if name == "." || name == ".." {
		return fmt.Errorf("must be a file name (got %q)", name)
	}
	return nil
}

// validateLabel checks a free-form label for length and control characters
func validateLabel(s string, maxLen int) error {
	if len(s) > maxLen {
		return fmt.Errorf("exceeds maximum length of %d characters (got %d)", maxLen, len(s))
	}
	if containsControlChars(s) {
		return fmt.Errorf("contains invalid control characters")
	}
	return nil
}

// containsControlChars checks if a string contains control characters
// (excluding newlines, tabs, and carriage returns which are acceptable)
func containsControlChars(s string) bool {
	for _, r := range s {
		if unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r' {
			return true
		}
	}
	return false
}
