package checkpoint

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lamim/trainkit/pkg/models"
)

// Format defines the on-disk serialization of a snapshot
type Format int

const (
	FormatJSON Format = iota
	FormatProto
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatProto:
		return "proto"
	default:
		return "unknown"
	}
}

// ParseFormat maps a config value to a Format
func ParseFormat(s string) (Format, error) {
	switch s {
	case "json", "":
		return FormatJSON, nil
	case "proto":
		return FormatProto, nil
	default:
		return FormatJSON, fmt.Errorf("unsupported checkpoint format: %s", s)
	}
}

// Saver writes evaluation point state to disk
type Saver struct {
	format  Format
	runID   string
	logger  *slog.Logger
	writeMu sync.Mutex // Protects concurrent disk writes
}

// NewSaver creates a saver for the given format with a fresh run id
func NewSaver(format Format, logger *slog.Logger) *Saver {
	return &Saver{
		format: format,
		runID:  uuid.New().String(),
		logger: logger,
	}
}

// RunID returns the id stamped into every snapshot written by this saver
func (s *Saver) RunID() string {
	return s.runID
}

// SetLogger replaces the logger, used once the run log is set up
func (s *Saver) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// Save serializes the state carried by point to path
func (s *Saver) Save(path string, point models.EvaluationPoint) error {
	snap, err := resolveState(point.State)
	if err != nil {
		return err
	}

	// Stamp a copy so the caller's snapshot is left untouched
	out := &models.Snapshot{
		Metadata: models.SnapshotMetadata{
			RunID:     s.runID,
			Framework: models.Framework,
			Epoch:     point.Epoch,
			Metric:    point.Metric,
			CreatedAt: time.Now().UTC(),
		},
		Tensors: snap.Tensors,
	}

	data, err := s.encode(out)
	if err != nil {
		return err
	}

	return s.writeToDisk(path, data)
}

func (s *Saver) encode(snap *models.Snapshot) ([]byte, error) {
	switch s.format {
	case FormatJSON:
		data, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal checkpoint: %w", err)
		}
		return data, nil
	case FormatProto:
		return MarshalProto(snap), nil
	default:
		return nil, fmt.Errorf("unsupported checkpoint format: %s", s.format)
	}
}

// writeToDisk performs the atomic write: temp file in the same directory, then rename
func (s *Saver) writeToDisk(path string, data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create checkpoint directory: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp checkpoint: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename checkpoint: %w", err)
	}

	s.logger.Debug("Checkpoint saved", "path", path, "format", s.format, "bytes", len(data))
	return nil
}

func resolveState(state any) (*models.Snapshot, error) {
	switch st := state.(type) {
	case *models.Snapshot:
		if st == nil {
			return nil, fmt.Errorf("checkpoint state is a nil snapshot")
		}
		return st, nil
	case models.Snapshot:
		return &st, nil
	case models.StateProvider:
		snap, err := st.Snapshot()
		if err != nil {
			return nil, fmt.Errorf("failed to export state: %w", err)
		}
		if snap == nil {
			return nil, fmt.Errorf("state provider returned a nil snapshot")
		}
		return snap, nil
	case nil:
		return nil, fmt.Errorf("checkpoint state is nil")
	default:
		return nil, fmt.Errorf("unsupported checkpoint state type %T", state)
	}
}

// Load reads a snapshot from disk, detecting its format from the content
func Load(path string) (*models.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}

	switch DetectFormat(data) {
	case FormatJSON:
		var snap models.Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			return nil, fmt.Errorf("failed to unmarshal checkpoint: %w", err)
		}
		return &snap, nil
	default:
		snap, err := UnmarshalProto(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
		}
		return snap, nil
	}
}

// DetectFormat reports FormatJSON when the payload starts with '{', FormatProto otherwise
func DetectFormat(data []byte) Format {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return FormatJSON
	}
	return FormatProto
}
