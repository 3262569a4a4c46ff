// Package session owns the on-disk layout of a single tracked run: the
// checkpoint directory, the run log and the config backup.
package session

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	LogFilename          = "trainkit.log"
	ConfigBackupFilename = "config.bak"
)

// Run manages the checkpoint directory of one run
type Run struct {
	dir    string
	id     string
	logger *slog.Logger
}

// NewRun prepares dir for a run with the given id, creating it if needed
func NewRun(dir, id string, logger *slog.Logger) (*Run, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Run{
		dir:    dir,
		id:     id,
		logger: logger,
	}, nil
}

// Dir returns the checkpoint directory
func (r *Run) Dir() string {
	return r.dir
}

// ID returns the run identifier
func (r *Run) ID() string {
	return r.id
}

// LogPath returns the full path to the run log file
func (r *Run) LogPath() string {
	return filepath.Join(r.dir, LogFilename)
}

// ConfigBackupPath returns the path the config copy is written to. The
// source extension is kept so the backup stays loadable.
func (r *Run) ConfigBackupPath(configPath string) string {
	return filepath.Join(r.dir, ConfigBackupFilename+filepath.Ext(configPath))
}

// SetLogger replaces the logger used for run bookkeeping
func (r *Run) SetLogger(logger *slog.Logger) {
	r.logger = logger
}

// BackupConfig copies the config file into the checkpoint directory
func (r *Run) BackupConfig(configPath string) error {
	source, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	backupPath := r.ConfigBackupPath(configPath)
	if err := os.WriteFile(backupPath, source, 0644); err != nil {
		return fmt.Errorf("failed to write config backup: %w", err)
	}

	r.logger.Info("Backed up config file", "path", backupPath)
	return nil
}
