package checkpoint

import "github.com/lamim/trainkit/pkg/models"

// GetTensorCount returns the number of tensors in a snapshot
func GetTensorCount(snap *models.Snapshot) int {
	return len(snap.Tensors)
}

// GetElementCount returns the total number of stored values across all tensors
func GetElementCount(snap *models.Snapshot) int64 {
	var total int64
	for _, t := range snap.Tensors {
		total += int64(len(t.Data))
	}
	return total
}

// ValidateSnapshot checks that every tensor's data length matches its shape
func ValidateSnapshot(snap *models.Snapshot) []string {
	var problems []string
	for _, t := range snap.Tensors {
		want := 1
		for _, d := range t.Shape {
			want *= d
		}
		if want != len(t.Data) {
			problems = append(problems,
				t.Name+": shape does not match data length")
		}
	}
	return problems
}
