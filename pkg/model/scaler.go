package model

import (
	"errors"

	"gonum.org/v1/gonum/stat"
)

// StandardScaler centers each feature on its mean and divides by its
// population standard deviation. Constant features keep a scale of 1.
type StandardScaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

func FitStandardScaler(X [][]float64) (*StandardScaler, error) {
	if len(X) == 0 {
		return nil, errors.New("scaler requires at least one row")
	}

	cols := len(X[0])
	s := &StandardScaler{
		Mean:  make([]float64, cols),
		Scale: make([]float64, cols),
	}

	col := make([]float64, len(X))
	for j := 0; j < cols; j++ {
		for i, row := range X {
			col[i] = row[j]
		}
		mean, std := stat.PopMeanStdDev(col, nil)
		if std == 0 {
			std = 1
		}
		s.Mean[j] = mean
		s.Scale[j] = std
	}

	return s, nil
}

func (s *StandardScaler) TransformRow(row []float64) []float64 {
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = (v - s.Mean[j]) / s.Scale[j]
	}
	return out
}

func (s *StandardScaler) Transform(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, row := range X {
		out[i] = s.TransformRow(row)
	}
	return out
}
