package model

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
)

// Metrics are informational in-sample scores recorded at training time.
type Metrics struct {
	AUC   float64 `json:"auc" yaml:"auc"`
	Brier float64 `json:"brier" yaml:"brier"`
}

// ROCAUC computes the area under the ROC curve as the normalized
// Mann-Whitney statistic. Tied scores receive their average rank.
func ROCAUC(y []int, p []float64) (float64, error) {
	if len(y) != len(p) {
		return 0, fmt.Errorf("labels (%d) and scores (%d) differ", len(y), len(p))
	}

	order := make([]int, len(p))
	for i := range order {
		order[i] = i
	}
	slices.SortFunc(order, func(a, b int) int {
		return cmp.Compare(p[a], p[b])
	})

	var pos, neg, rankSum float64
	for i := 0; i < len(order); {
		j := i
		for j < len(order) && p[order[j]] == p[order[i]] {
			j++
		}
		// ranks i+1..j share the average
		avg := float64(i+1+j) / 2
		for _, idx := range order[i:j] {
			if y[idx] == 1 {
				pos++
				rankSum += avg
			} else {
				neg++
			}
		}
		i = j
	}

	if pos == 0 || neg == 0 {
		return 0, errors.New("ROC AUC requires both classes")
	}

	return (rankSum - pos*(pos+1)/2) / (pos * neg), nil
}

// Brier returns the mean squared difference between p and the outcome.
func Brier(y []int, p []float64) (float64, error) {
	if len(y) != len(p) {
		return 0, fmt.Errorf("labels (%d) and scores (%d) differ", len(y), len(p))
	}
	if len(y) == 0 {
		return 0, errors.New("brier score requires at least one sample")
	}

	sum := 0.0
	for i := range y {
		d := p[i] - float64(y[i])
		sum += d * d
	}
	return sum / float64(len(y)), nil
}
