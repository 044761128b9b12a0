package vectorindex_test

import (
	"math"
	"testing"

	"github.com/mkoziel/vitrine/internal/vectorindex"
)

func TestCosineSimilarity_Identity(t *testing.T) {
	t.Parallel()

	vectors := [][]float64{
		{1, 0, 0},
		{0.3, -0.7, 2.1},
		{5},
	}
	for _, v := range vectors {
		if got := vectorindex.CosineSimilarity(v, v); math.Abs(got-1) > 1e-9 {
			t.Errorf("CosineSimilarity(v, v) = %v, want 1", got)
		}
	}
}

func TestCosineSimilarity_Orthogonal(t *testing.T) {
	t.Parallel()

	a := []float64{1, 0}
	b := []float64{0, 1}
	if got := vectorindex.CosineSimilarity(a, b); got != 0 {
		t.Errorf("CosineSimilarity(orthogonal) = %v, want 0", got)
	}
}

func TestCosineSimilarity_Opposite(t *testing.T) {
	t.Parallel()

	a := []float64{1, 2}
	b := []float64{-1, -2}
	if got := vectorindex.CosineSimilarity(a, b); math.Abs(got+1) > 1e-9 {
		t.Errorf("CosineSimilarity(opposite) = %v, want -1", got)
	}
}

func TestCosineSimilarity_Degenerate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b []float64
	}{
		{"mismatched lengths", []float64{1, 2}, []float64{1}},
		{"zero vector", []float64{0, 0}, []float64{1, 2}},
		{"both empty", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := vectorindex.CosineSimilarity(tt.a, tt.b); got != 0 {
				t.Errorf("CosineSimilarity = %v, want 0", got)
			}
		})
	}
}
