package model

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

// MedianImputer replaces missing (NaN) values with the per-feature median
// of the values observed during Fit.
type MedianImputer struct {
	Medians []float64 `json:"medians"`
}

// FitMedianImputer computes the column medians of X, ignoring NaN cells.
// names is used only to label errors and may be nil.
func FitMedianImputer(X [][]float64, names []string) (*MedianImputer, error) {
	if len(X) == 0 {
		return nil, errors.New("imputer requires at least one row")
	}

	cols := len(X[0])
	m := &MedianImputer{Medians: make([]float64, cols)}
	vals := make([]float64, 0, len(X))

	for j := 0; j < cols; j++ {
		vals = vals[:0]
		for i, row := range X {
			if len(row) != cols {
				return nil, fmt.Errorf("row %d has %d values, expected %d", i, len(row), cols)
			}
			if !math.IsNaN(row[j]) {
				vals = append(vals, row[j])
			}
		}
		if len(vals) == 0 {
			return nil, fmt.Errorf("feature %s has no observed values", columnName(names, j))
		}
		m.Medians[j] = median(vals)
	}

	return m, nil
}

// TransformRow returns a copy of row with NaN cells replaced.
func (m *MedianImputer) TransformRow(row []float64) []float64 {
	out := make([]float64, len(row))
	for j, v := range row {
		if math.IsNaN(v) {
			v = m.Medians[j]
		}
		out[j] = v
	}
	return out
}

// Transform applies TransformRow to every row of X.
func (m *MedianImputer) Transform(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, row := range X {
		out[i] = m.TransformRow(row)
	}
	return out
}

// median sorts vals in place.
func median(vals []float64) float64 {
	slices.Sort(vals)
	n := len(vals)
	if n%2 == 1 {
		return vals[n/2]
	}
	return (vals[n/2-1] + vals[n/2]) / 2
}

func columnName(names []string, j int) string {
	if j < len(names) {
		return names[j]
	}
	return fmt.Sprintf("#%d", j)
}
