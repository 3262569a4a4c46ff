package loss

import (
	"math"
	"testing"

	"github.com/lamim/trainkit/internal/config"
)

const tolerance = 1e-9

func TestOneHot(t *testing.T) {
	l, err := NewLabelSmoothingCrossEntropy(0.1, 5)
	if err != nil {
		t.Fatal(err)
	}
	target, err := l.OneHot(2)
	if err != nil {
		t.Fatal(err)
	}

	var sum float64
	for j, v := range target {
		sum += v
		want := 0.025
		if j == 2 {
			want = 0.9
		}
		if math.Abs(v-want) > tolerance {
			t.Errorf("target[%d] = %v, want %v", j, v, want)
		}
	}
	if math.Abs(sum-1) > tolerance {
		t.Errorf("Expected targets to sum to 1, got %v", sum)
	}

	if _, err := l.OneHot(5); err == nil {
		t.Error("Expected error for out of range label")
	}
}

func TestForwardUniformLogits(t *testing.T) {
	l, err := NewLabelSmoothingCrossEntropy(0.3, 4)
	if err != nil {
		t.Fatal(err)
	}

	got, err := l.Forward([][]float64{{1, 1, 1, 1}, {-2, -2, -2, -2}}, []int{0, 3})
	if err != nil {
		t.Fatal(err)
	}
	if want := math.Log(4); math.Abs(got-want) > tolerance {
		t.Errorf("Forward() = %v, want log(4) = %v", got, want)
	}
}

func TestForwardNoSmoothingMatchesCrossEntropy(t *testing.T) {
	l, err := NewLabelSmoothingCrossEntropy(0, 3)
	if err != nil {
		t.Fatal(err)
	}

	logits := []float64{2, 1, 0.1}
	got, err := l.Forward([][]float64{logits}, []int{0})
	if err != nil {
		t.Fatal(err)
	}

	sum := math.Exp(2) + math.Exp(1) + math.Exp(0.1)
	want := -math.Log(math.Exp(2) / sum)
	if math.Abs(got-want) > tolerance {
		t.Errorf("Forward() = %v, want %v", got, want)
	}
}

func TestForwardSmoothingPenalizesOverconfidence(t *testing.T) {
	plain, _ := NewLabelSmoothingCrossEntropy(0, 3)
	smooth, _ := NewLabelSmoothingCrossEntropy(0.2, 3)

	confident := [][]float64{{20, 0, 0}}
	a, err := plain.Forward(confident, []int{0})
	if err != nil {
		t.Fatal(err)
	}
	b, err := smooth.Forward(confident, []int{0})
	if err != nil {
		t.Fatal(err)
	}
	if b <= a {
		t.Errorf("Expected smoothed loss %v to exceed plain loss %v on a confident prediction", b, a)
	}
}

func TestForwardLargeLogitsStayFinite(t *testing.T) {
	l, _ := NewLabelSmoothingCrossEntropy(0.1, 2)
	got, err := l.Forward([][]float64{{1000, -1000}}, []int{1})
	if err != nil {
		t.Fatal(err)
	}
	if math.IsInf(got, 0) || math.IsNaN(got) {
		t.Errorf("Expected finite loss, got %v", got)
	}
}

func TestForwardErrors(t *testing.T) {
	l, _ := NewLabelSmoothingCrossEntropy(0.1, 3)

	if _, err := l.Forward(nil, nil); err == nil {
		t.Error("Expected error for empty batch")
	}
	if _, err := l.Forward([][]float64{{1, 2, 3}}, []int{0, 1}); err == nil {
		t.Error("Expected error for label count mismatch")
	}
	if _, err := l.Forward([][]float64{{1, 2}}, []int{0}); err == nil {
		t.Error("Expected error for wrong class count")
	}
	if _, err := l.Forward([][]float64{{1, 2, 3}}, []int{-1}); err == nil {
		t.Error("Expected error for negative label")
	}
}

func TestNewLabelSmoothingCrossEntropyInvalid(t *testing.T) {
	if _, err := NewLabelSmoothingCrossEntropy(0.1, 1); err == nil {
		t.Error("Expected error for one class")
	}
	if _, err := NewLabelSmoothingCrossEntropy(1.0, 10); err == nil {
		t.Error("Expected error for smooth factor 1")
	}
}

func TestFromConfig(t *testing.T) {
	l, err := FromConfig(config.DefaultConfig().Loss)
	if err != nil {
		t.Fatalf("FromConfig() error = %v", err)
	}
	if l.NumClasses != 1000 || l.SmoothFactor != 0.1 {
		t.Errorf("unexpected loss %+v", l)
	}
}
