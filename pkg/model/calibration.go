package model

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"
)

const defaultFolds = 5

// CalibrationOptions configure the cross-validated calibration.
type CalibrationOptions struct {
	Folds    int
	Workers  int
	Logistic LogisticOptions
}

// Pipeline standardizes features then applies logistic regression.
type Pipeline struct {
	Scaler     *StandardScaler     `json:"scaler"`
	Classifier *LogisticRegression `json:"classifier"`
}

// FitPipeline fits the scaler on X then the classifier on the scaled X.
func FitPipeline(X [][]float64, y []int, opts LogisticOptions) (*Pipeline, error) {
	sc, err := FitStandardScaler(X)
	if err != nil {
		return nil, fmt.Errorf("fitting scaler: %w", err)
	}
	lr, err := FitLogisticRegression(sc.Transform(X), y, opts)
	if err != nil {
		return nil, fmt.Errorf("fitting logistic regression: %w", err)
	}
	return &Pipeline{Scaler: sc, Classifier: lr}, nil
}

// Decision returns the classifier decision value for a raw (imputed) row.
func (p *Pipeline) Decision(x []float64) float64 {
	return p.Classifier.Decision(p.Scaler.TransformRow(x))
}

// CalibratedMember pairs a pipeline fitted on the training part of a fold
// with an isotonic map fitted on the held-out part.
type CalibratedMember struct {
	Pipeline   *Pipeline `json:"pipeline"`
	Calibrator *Isotonic `json:"calibrator"`
}

func (m *CalibratedMember) Probability(x []float64) float64 {
	p := m.Calibrator.Predict(m.Pipeline.Decision(x))
	if p > 1 {
		return 1
	}
	if p < 0 {
		return 0
	}
	return p
}

// CalibratedClassifier averages the calibrated probabilities of its members.
type CalibratedClassifier struct {
	Members []*CalibratedMember `json:"members"`
}

// Probability returns the calibrated positive-class probability.
func (c *CalibratedClassifier) Probability(x []float64) float64 {
	sum := 0.0
	for _, m := range c.Members {
		sum += m.Probability(x)
	}
	return sum / float64(len(c.Members))
}

// Dims returns the feature count every member expects, or an error if
// the members disagree.
func (c *CalibratedClassifier) Dims() (int, error) {
	if len(c.Members) == 0 {
		return 0, errors.New("classifier has no members")
	}
	dims := -1
	for i, m := range c.Members {
		if m == nil || m.Pipeline == nil || m.Pipeline.Scaler == nil ||
			m.Pipeline.Classifier == nil || m.Calibrator == nil {
			return 0, fmt.Errorf("member %d is incomplete", i)
		}
		d := len(m.Pipeline.Classifier.Coef)
		if len(m.Pipeline.Scaler.Mean) != d || len(m.Pipeline.Scaler.Scale) != d {
			return 0, fmt.Errorf("member %d scaler and classifier sizes differ", i)
		}
		if len(m.Calibrator.X) == 0 || len(m.Calibrator.X) != len(m.Calibrator.Y) {
			return 0, fmt.Errorf("member %d calibrator is malformed", i)
		}
		if dims >= 0 && d != dims {
			return 0, fmt.Errorf("member %d expects %d features, others %d", i, d, dims)
		}
		dims = d
	}
	return dims, nil
}

// FitCalibrated fits one calibrated member per stratified fold. Folds are
// fitted concurrently; members are stored by fold index.
func FitCalibrated(ctx context.Context, X [][]float64, y []int, opts CalibrationOptions) (*CalibratedClassifier, error) {
	if opts.Folds <= 0 {
		opts.Folds = defaultFolds
	}
	if opts.Workers <= 0 {
		opts.Workers = opts.Folds
	}

	folds, err := StratifiedFolds(y, opts.Folds)
	if err != nil {
		return nil, err
	}

	members := make([]*CalibratedMember, opts.Folds)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	for k := range folds {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			m, err := fitMember(X, y, folds[k], opts.Logistic)
			if err != nil {
				return fmt.Errorf("fold %d: %w", k, err)
			}
			members[k] = m
			slog.Debug("fold calibrated", "fold", k, "held_out", len(folds[k]), "thresholds", len(m.Calibrator.X))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &CalibratedClassifier{Members: members}, nil
}

func fitMember(X [][]float64, y []int, test []int, opts LogisticOptions) (*CalibratedMember, error) {
	held := make([]bool, len(X))
	for _, i := range test {
		held[i] = true
	}

	trainX := make([][]float64, 0, len(X)-len(test))
	trainY := make([]int, 0, len(X)-len(test))
	for i := range X {
		if !held[i] {
			trainX = append(trainX, X[i])
			trainY = append(trainY, y[i])
		}
	}

	p, err := FitPipeline(trainX, trainY, opts)
	if err != nil {
		return nil, err
	}

	dec := make([]float64, len(test))
	out := make([]float64, len(test))
	for j, i := range test {
		dec[j] = p.Decision(X[i])
		out[j] = float64(y[i])
	}

	iso, err := FitIsotonic(dec, out)
	if err != nil {
		return nil, fmt.Errorf("fitting calibrator: %w", err)
	}

	return &CalibratedMember{Pipeline: p, Calibrator: iso}, nil
}

// StratifiedFolds splits sample indices into k held-out folds while keeping
// class proportions. The split is deterministic: classes are encoded by
// order of first appearance and each class's samples, in input order, are
// dealt to folds in contiguous runs sized from the interleaved class counts.
func StratifiedFolds(y []int, k int) ([][]int, error) {
	if k < 2 {
		return nil, fmt.Errorf("at least 2 folds required, got %d", k)
	}

	code := make(map[int]int)
	enc := make([]int, len(y))
	for i, v := range y {
		if v != 0 && v != 1 {
			return nil, fmt.Errorf("label %d at row %d is not 0 or 1", v, i)
		}
		c, ok := code[v]
		if !ok {
			c = len(code)
			code[v] = c
		}
		enc[i] = c
	}

	classes := len(code)
	if classes != 2 {
		return nil, fmt.Errorf("binary outcome required, found %d class(es)", classes)
	}

	counts := make([]int, classes)
	for _, c := range enc {
		counts[c]++
	}
	for v, c := range code {
		if counts[c] < k {
			return nil, fmt.Errorf("class %d has %d samples, fewer than %d folds", v, counts[c], k)
		}
	}

	sorted := slices.Clone(enc)
	slices.Sort(sorted)

	// alloc[f][c] is how many samples of class c land in fold f
	alloc := make([][]int, k)
	for f := range alloc {
		alloc[f] = make([]int, classes)
		for i := f; i < len(sorted); i += k {
			alloc[f][sorted[i]]++
		}
	}

	folds := make([][]int, k)
	for c := 0; c < classes; c++ {
		f, used := 0, 0
		for i, e := range enc {
			if e != c {
				continue
			}
			for used == alloc[f][c] {
				f++
				used = 0
			}
			folds[f] = append(folds[f], i)
			used++
		}
	}

	for f := range folds {
		slices.Sort(folds[f])
	}

	return folds, nil
}
