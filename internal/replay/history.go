// Package replay feeds a recorded evaluation history through the tracker as
// if a training loop were producing it.
package replay

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lamim/trainkit/pkg/models"
)

const maxRecordSize = 64 * 1024 * 1024

// Record is one recorded epoch: the metric the evaluation produced and
// optionally the trainable state at that point
type Record struct {
	Epoch   int             `json:"epoch"`
	Metric  float64         `json:"metric"`
	Tensors []models.Tensor `json:"tensors,omitempty"`
}

// Snapshot returns the record's state as a snapshot
func (r Record) Snapshot() (*models.Snapshot, error) {
	return &models.Snapshot{Tensors: r.Tensors}, nil
}

// ReadHistory parses JSONL records. Blank lines are ignored; epochs must be
// non-negative and strictly increasing.
func ReadHistory(r io.Reader) ([]Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRecordSize)

	var records []Record
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, fmt.Errorf("line %d: failed to parse record: %w", lineNum, err)
		}
		if rec.Epoch < 0 {
			return nil, fmt.Errorf("line %d: epoch must be non-negative (got %d)", lineNum, rec.Epoch)
		}
		if n := len(records); n > 0 && rec.Epoch <= records[n-1].Epoch {
			return nil, fmt.Errorf("line %d: epoch %d does not follow epoch %d", lineNum, rec.Epoch, records[n-1].Epoch)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	return records, nil
}

// ReadHistoryFile reads records from a JSONL file
func ReadHistoryFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	defer f.Close()

	return ReadHistory(f)
}
