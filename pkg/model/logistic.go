package model

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	defaultC       = 1.0
	defaultMaxIter = 500
	defaultTol     = 1e-10

	armijo        = 1e-4
	minStepFactor = 1e-12
	ridgeJitter   = 1e-10
)

// LogisticOptions control the L2-regularized logistic regression fit.
// The objective is C * sum(logloss) + 0.5 * ||coef||^2; the intercept is
// not penalized.
type LogisticOptions struct {
	C       float64
	MaxIter int
	Tol     float64
}

func (o LogisticOptions) withDefaults() LogisticOptions {
	if o.C <= 0 {
		o.C = defaultC
	}
	if o.MaxIter <= 0 {
		o.MaxIter = defaultMaxIter
	}
	if o.Tol <= 0 {
		o.Tol = defaultTol
	}
	return o
}

// LogisticRegression is a fitted binary logistic model.
type LogisticRegression struct {
	Coef      []float64 `json:"coef"`
	Intercept float64   `json:"intercept"`
}

// Decision returns the signed distance w·x + b.
func (lr *LogisticRegression) Decision(x []float64) float64 {
	return floats.Dot(lr.Coef, x) + lr.Intercept
}

// Probability returns the uncalibrated positive-class probability.
func (lr *LogisticRegression) Probability(x []float64) float64 {
	return sigmoid(lr.Decision(x))
}

// FitLogisticRegression solves the regularized problem with Newton's method
// and a backtracking line search.
func FitLogisticRegression(X [][]float64, y []int, opts LogisticOptions) (*LogisticRegression, error) {
	if len(X) == 0 {
		return nil, errors.New("logistic regression requires at least one row")
	}
	if len(X) != len(y) {
		return nil, fmt.Errorf("rows (%d) and labels (%d) differ", len(X), len(y))
	}
	opts = opts.withDefaults()

	d := len(X[0])
	n := d + 1
	theta := make([]float64, n)
	grad := make([]float64, n)
	hess := make([]float64, n*n)
	next := make([]float64, n)
	xa := make([]float64, n)
	xa[d] = 1

	obj := objective(X, y, theta, opts.C)
	converged := false

	for iter := 0; iter < opts.MaxIter; iter++ {
		for i := range grad {
			grad[i] = 0
		}
		for i := range hess {
			hess[i] = 0
		}

		for i, row := range X {
			copy(xa, row)
			p := sigmoid(floats.Dot(theta, xa))
			r := opts.C * (p - float64(y[i]))
			s := opts.C * p * (1 - p)
			for a := 0; a < n; a++ {
				grad[a] += r * xa[a]
				sa := s * xa[a]
				for b := a; b < n; b++ {
					hess[a*n+b] += sa * xa[b]
				}
			}
		}
		for a := 0; a < d; a++ {
			grad[a] += theta[a]
			hess[a*n+a]++
		}
		for a := 0; a < n; a++ {
			for b := 0; b < a; b++ {
				hess[a*n+b] = hess[b*n+a]
			}
		}

		step, err := newtonStep(n, hess, grad)
		if err != nil {
			return nil, fmt.Errorf("iteration %d: %w", iter, err)
		}

		decrease := floats.Dot(grad, step)
		t := 1.0
		var nextObj float64
		for {
			for a := range next {
				next[a] = theta[a] - t*step[a]
			}
			nextObj = objective(X, y, next, opts.C)
			if nextObj <= obj-armijo*t*decrease || t < minStepFactor {
				break
			}
			t /= 2
		}

		delta := t * floats.Norm(step, math.Inf(1))
		copy(theta, next)
		obj = nextObj

		if delta < opts.Tol {
			converged = true
			break
		}
	}

	if !converged {
		slog.Warn("logistic regression did not converge", "max_iter", opts.MaxIter)
	}

	return &LogisticRegression{
		Coef:      append([]float64(nil), theta[:d]...),
		Intercept: theta[d],
	}, nil
}

func newtonStep(n int, hess, grad []float64) ([]float64, error) {
	h := mat.NewSymDense(n, append([]float64(nil), hess...))

	var chol mat.Cholesky
	if ok := chol.Factorize(h); !ok {
		// the unpenalized intercept can leave H singular on degenerate data
		for a := 0; a < n; a++ {
			h.SetSym(a, a, h.At(a, a)+ridgeJitter)
		}
		if ok := chol.Factorize(h); !ok {
			return nil, errors.New("hessian is not positive definite")
		}
	}

	var step mat.VecDense
	if err := chol.SolveVecTo(&step, mat.NewVecDense(n, append([]float64(nil), grad...))); err != nil {
		return nil, fmt.Errorf("solving newton system: %w", err)
	}

	out := make([]float64, n)
	for i := range out {
		out[i] = step.AtVec(i)
	}
	return out, nil
}

func objective(X [][]float64, y []int, theta []float64, c float64) float64 {
	d := len(theta) - 1
	loss := 0.0
	for i, row := range X {
		z := floats.Dot(theta[:d], row) + theta[d]
		loss += log1pExp(z) - float64(y[i])*z
	}
	reg := floats.Dot(theta[:d], theta[:d]) / 2
	return c*loss + reg
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

func log1pExp(z float64) float64 {
	if z > 0 {
		return z + math.Log1p(math.Exp(-z))
	}
	return math.Log1p(math.Exp(z))
}
