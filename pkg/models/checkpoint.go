package models

import "time"

// Framework is stamped into every snapshot written by trainkit
const Framework = "trainkit"

// Snapshot is a serialized view of trainable state
type Snapshot struct {
	Metadata SnapshotMetadata `json:"metadata"`
	Tensors  []Tensor         `json:"tensors"`
}

// SnapshotMetadata identifies where a snapshot came from
type SnapshotMetadata struct {
	RunID     string    `json:"run_id"`    // UUID of the run that wrote the snapshot
	Framework string    `json:"framework"` // Always "trainkit" for files we write
	Epoch     int       `json:"epoch"`     // Epoch of the evaluation point
	Metric    float64   `json:"metric"`    // Metric value of the evaluation point
	CreatedAt time.Time `json:"created_at"`
}

// Tensor is a named parameter tensor with its flattened data
type Tensor struct {
	Name  string    `json:"name"`
	Shape []int     `json:"shape"`
	Data  []float32 `json:"data"`
}

// StateProvider is implemented by anything that can export its trainable state
type StateProvider interface {
	Snapshot() (*Snapshot, error)
}

// Parameters returns the name and shape of every tensor in the snapshot
func (s *Snapshot) Parameters() []Parameter {
	params := make([]Parameter, 0, len(s.Tensors))
	for _, t := range s.Tensors {
		params = append(params, Parameter{
			Name:  t.Name,
			Shape: append([]int{}, t.Shape...),
		})
	}
	return params
}
