package model

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mchmarny/riskscore/pkg/dataset"
)

// Options control a training run.
type Options struct {
	Folds   int
	Workers int
	C       float64
	MaxIter int
}

// DefaultOptions mirror the reference pipeline: 5 folds, C=1, 500 iterations.
func DefaultOptions() Options {
	return Options{
		Folds:   defaultFolds,
		C:       defaultC,
		MaxIter: defaultMaxIter,
	}
}

// Result is the outcome of Train.
type Result struct {
	Artifact *Artifact
	// Probabilities are the in-sample calibrated probabilities, by row.
	Probabilities []float64
	Metrics       *Metrics
}

// Train imputes, fits the calibrated classifier and scores it in-sample.
func Train(ctx context.Context, d *dataset.Dataset, opts Options) (*Result, error) {
	if d == nil || d.Rows() == 0 {
		return nil, errors.New("dataset with at least one row required")
	}

	imp, err := FitMedianImputer(d.X, d.Features)
	if err != nil {
		return nil, fmt.Errorf("fitting imputer: %w", err)
	}
	X := imp.Transform(d.X)

	clf, err := FitCalibrated(ctx, X, d.Y, CalibrationOptions{
		Folds:   opts.Folds,
		Workers: opts.Workers,
		Logistic: LogisticOptions{
			C:       opts.C,
			MaxIter: opts.MaxIter,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("fitting calibrated classifier: %w", err)
	}

	probs := make([]float64, len(X))
	for i, row := range X {
		probs[i] = clf.Probability(row)
	}

	auc, err := ROCAUC(d.Y, probs)
	if err != nil {
		return nil, fmt.Errorf("computing AUC: %w", err)
	}
	brier, err := Brier(d.Y, probs)
	if err != nil {
		return nil, fmt.Errorf("computing Brier score: %w", err)
	}
	m := &Metrics{AUC: auc, Brier: brier}

	slog.Debug("model trained", "rows", len(X), "members", len(clf.Members), "auc", auc, "brier", brier)

	return &Result{
		Artifact: &Artifact{
			Features:   append([]string(nil), d.Features...),
			Imputer:    imp,
			Classifier: clf,
			Metrics:    m,
			TrainedAt:  time.Now().UTC(),
		},
		Probabilities: probs,
		Metrics:       m,
	}, nil
}
