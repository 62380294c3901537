package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitMedianImputer(t *testing.T) {
	nan := math.NaN()
	X := [][]float64{
		{1, nan, 5},
		{3, 10, 5},
		{2, 20, nan},
		{4, nan, 7},
	}

	m, err := FitMedianImputer(X, []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, []float64{2.5, 15, 5}, m.Medians)

	out := m.Transform(X)
	assert.Equal(t, []float64{1, 15, 5}, out[0])
	assert.Equal(t, []float64{2, 20, 5}, out[2])

	// input is not modified
	assert.True(t, math.IsNaN(X[0][1]))
}

func TestFitMedianImputer_AllMissingColumn(t *testing.T) {
	nan := math.NaN()
	_, err := FitMedianImputer([][]float64{{1, nan}, {2, nan}}, []string{"a", "Insulin"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Insulin")
}

func TestFitMedianImputer_Errors(t *testing.T) {
	_, err := FitMedianImputer(nil, nil)
	assert.Error(t, err)

	_, err = FitMedianImputer([][]float64{{1, 2}, {3}}, nil)
	assert.Error(t, err)
}

func TestFitStandardScaler(t *testing.T) {
	X := [][]float64{
		{1, 5},
		{3, 5},
		{5, 5},
	}
	s, err := FitStandardScaler(X)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, s.Mean[0], 1e-12)
	assert.InDelta(t, math.Sqrt(8.0/3.0), s.Scale[0], 1e-12)
	// constant column keeps unit scale
	assert.Equal(t, 1.0, s.Scale[1])

	row := s.TransformRow([]float64{3, 5})
	assert.InDelta(t, 0, row[0], 1e-12)
	assert.InDelta(t, 0, row[1], 1e-12)
}

func TestFitLogisticRegression_Optimality(t *testing.T) {
	X := [][]float64{
		{-2, 1}, {-1.5, 0}, {-1, 1}, {-0.5, -1}, {0, 0},
		{0.5, 1}, {1, -1}, {1.5, 0}, {2, 1}, {2.5, -1},
	}
	y := []int{0, 0, 0, 1, 0, 1, 0, 1, 1, 1}

	lr, err := FitLogisticRegression(X, y, LogisticOptions{C: 1})
	require.NoError(t, err)
	assert.Greater(t, lr.Coef[0], 0.0)

	// gradient of C*logloss + 0.5*||w||^2 vanishes at the optimum
	g := make([]float64, 2)
	gb := 0.0
	for i, row := range X {
		r := lr.Probability(row) - float64(y[i])
		g[0] += r * row[0]
		g[1] += r * row[1]
		gb += r
	}
	assert.InDelta(t, 0, g[0]+lr.Coef[0], 1e-8)
	assert.InDelta(t, 0, g[1]+lr.Coef[1], 1e-8)
	assert.InDelta(t, 0, gb, 1e-8)
}

func TestFitLogisticRegression_Errors(t *testing.T) {
	_, err := FitLogisticRegression(nil, nil, LogisticOptions{})
	assert.Error(t, err)

	_, err = FitLogisticRegression([][]float64{{1}}, []int{0, 1}, LogisticOptions{})
	assert.Error(t, err)
}

func TestSigmoid(t *testing.T) {
	assert.Equal(t, 0.5, sigmoid(0))
	assert.InDelta(t, 1, sigmoid(800), 1e-12)
	assert.InDelta(t, 0, sigmoid(-800), 1e-12)
	assert.False(t, math.IsNaN(log1pExp(1000)))
}

func TestFitIsotonic_PoolsViolators(t *testing.T) {
	iso, err := FitIsotonic([]float64{1, 2, 3, 4}, []float64{1, 3, 2, 4})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4}, iso.X)
	assert.Equal(t, []float64{1, 2.5, 2.5, 4}, iso.Y)
}

func TestFitIsotonic_TiesAndOrder(t *testing.T) {
	iso, err := FitIsotonic([]float64{3, 1, 1, 2}, []float64{1, 0, 1, 1})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, iso.X)
	assert.Equal(t, []float64{0.5, 1, 1}, iso.Y)
	assert.Equal(t, 0.5, iso.Predict(1))
	assert.Equal(t, 1.0, iso.Predict(3))
}

func TestIsotonic_Predict(t *testing.T) {
	iso := &Isotonic{X: []float64{0, 1, 3}, Y: []float64{0, 0.5, 1}}

	tests := []struct {
		v    float64
		want float64
	}{
		{-5, 0},
		{0, 0},
		{0.5, 0.25},
		{1, 0.5},
		{2, 0.75},
		{3, 1},
		{10, 1},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, iso.Predict(tt.v), 1e-12, "v=%v", tt.v)
	}

	single := &Isotonic{X: []float64{2}, Y: []float64{0.3}}
	assert.Equal(t, 0.3, single.Predict(-1))
	assert.Equal(t, 0.3, single.Predict(5))
}

func TestFitIsotonic_Errors(t *testing.T) {
	_, err := FitIsotonic(nil, nil)
	assert.Error(t, err)

	_, err = FitIsotonic([]float64{1}, []float64{1, 2})
	assert.Error(t, err)
}

func TestStratifiedFolds_Deterministic(t *testing.T) {
	y := []int{0, 0, 0, 0, 1, 1, 1, 1, 1, 1}
	folds, err := StratifiedFolds(y, 2)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0, 1, 4, 5, 6}, {2, 3, 7, 8, 9}}, folds)
}

func TestStratifiedFolds_CoverAndBalance(t *testing.T) {
	y := make([]int, 103)
	for i := range y {
		if i%3 == 0 {
			y[i] = 1
		}
	}

	folds, err := StratifiedFolds(y, 5)
	require.NoError(t, err)
	require.Len(t, folds, 5)

	seen := make(map[int]bool)
	for _, f := range folds {
		pos := 0
		for _, i := range f {
			assert.False(t, seen[i], "index %d in two folds", i)
			seen[i] = true
			pos += y[i]
		}
		assert.InDelta(t, 7, pos, 1)
	}
	assert.Len(t, seen, len(y))
}

func TestStratifiedFolds_Errors(t *testing.T) {
	tests := []struct {
		name string
		y    []int
		k    int
	}{
		{"one fold", []int{0, 1}, 1},
		{"single class", []int{0, 0, 0, 0, 0}, 2},
		{"non binary", []int{0, 1, 2, 0, 1, 2}, 2},
		{"too few positives", []int{0, 0, 0, 0, 0, 1, 1}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := StratifiedFolds(tt.y, tt.k)
			assert.Error(t, err)
		})
	}
}

func TestROCAUC(t *testing.T) {
	tests := []struct {
		name string
		y    []int
		p    []float64
		want float64
	}{
		{"perfect", []int{0, 0, 1, 1}, []float64{0.1, 0.2, 0.8, 0.9}, 1},
		{"inverted", []int{1, 1, 0, 0}, []float64{0.1, 0.2, 0.8, 0.9}, 0},
		{"all tied", []int{0, 1, 0, 1}, []float64{0.5, 0.5, 0.5, 0.5}, 0.5},
		{"mixed", []int{0, 0, 1, 1}, []float64{0.1, 0.4, 0.35, 0.8}, 0.75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ROCAUC(tt.y, tt.p)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}

	_, err := ROCAUC([]int{1, 1}, []float64{0.2, 0.3})
	assert.Error(t, err)
	_, err = ROCAUC([]int{1}, []float64{0.2, 0.3})
	assert.Error(t, err)
}

func TestBrier(t *testing.T) {
	got, err := Brier([]int{0, 1, 1}, []float64{0.1, 0.9, 0.5})
	require.NoError(t, err)
	assert.InDelta(t, (0.01+0.01+0.25)/3, got, 1e-12)

	_, err = Brier(nil, nil)
	assert.Error(t, err)
}
