package session

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/lamim/trainkit/pkg/models"
)

const HistoryFilename = "evaluations.jsonl"

// HistoryWriter appends evaluation entries to the run's JSONL history
type HistoryWriter struct {
	file   *os.File
	mu     sync.Mutex
	logger *slog.Logger
}

// HistoryPath returns the full path to the evaluation history file
func (r *Run) HistoryPath() string {
	return filepath.Join(r.dir, HistoryFilename)
}

// NewHistoryWriter opens the history file of run for appending
func NewHistoryWriter(run *Run, logger *slog.Logger) (*HistoryWriter, error) {
	path := run.HistoryPath()

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open history file: %w", err)
	}

	logger.Info("Opened evaluation history", "path", path)

	return &HistoryWriter{
		file:   file,
		logger: logger,
	}, nil
}

// WriteEntry writes a single entry as one JSON line
func (hw *HistoryWriter) WriteEntry(entry models.EvaluationEntry) error {
	hw.mu.Lock()
	defer hw.mu.Unlock()

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal history entry: %w", err)
	}

	if _, err := hw.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write history entry: %w", err)
	}

	return nil
}

// Close closes the history file
func (hw *HistoryWriter) Close() error {
	if err := hw.file.Sync(); err != nil {
		hw.logger.Warn("Failed to sync history file", "error", err)
	}

	if err := hw.file.Close(); err != nil {
		return fmt.Errorf("failed to close history file: %w", err)
	}

	return nil
}
