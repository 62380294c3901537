package predict

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/mchmarny/riskscore/pkg/dataset"
	"github.com/mchmarny/riskscore/pkg/model"
	"github.com/mchmarny/riskscore/pkg/risk"
)

// MissingFeatureError names the first declared feature absent from a record.
type MissingFeatureError struct {
	Name string
}

func (e *MissingFeatureError) Error() string {
	return "Missing feature " + e.Name
}

// InvalidFeatureValueError names a feature whose value is not a real number.
type InvalidFeatureValueError struct {
	Name  string
	Value any
}

func (e *InvalidFeatureValueError) Error() string {
	return "Invalid value for feature " + e.Name
}

// IsClientError reports whether err was caused by the caller's record.
func IsClientError(err error) bool {
	var mf *MissingFeatureError
	var iv *InvalidFeatureValueError
	return errors.As(err, &mf) || errors.As(err, &iv)
}

// Service scores records against one loaded artifact. It is safe for
// concurrent use; nothing in it changes after construction.
type Service struct {
	artifact *model.Artifact
	features []string
}

// New wraps an already loaded artifact.
func New(a *model.Artifact) (*Service, error) {
	if a == nil {
		return nil, model.ErrArtifactMissing
	}
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrArtifactMissing, err)
	}
	return &Service{
		artifact: a,
		features: append([]string(nil), a.Features...),
	}, nil
}

// Load reads the artifact at path and wraps it.
func Load(path string) (*Service, error) {
	a, err := model.Load(path)
	if err != nil {
		return nil, err
	}
	slog.Info("model loaded", "path", path, "features", len(a.Features))
	return New(a)
}

// Features returns a copy of the declared feature order.
func (s *Service) Features() []string {
	return append([]string(nil), s.features...)
}

// Vector assembles record into declared feature order. Fields are matched
// by name; extra fields are ignored. Null and NA values become NaN so the
// imputer fills them.
func (s *Service) Vector(record map[string]any) ([]float64, error) {
	x := make([]float64, len(s.features))
	for i, name := range s.features {
		raw, ok := record[name]
		if !ok {
			return nil, &MissingFeatureError{Name: name}
		}
		v, err := toFloat(raw)
		if err != nil || math.IsInf(v, 0) {
			return nil, &InvalidFeatureValueError{Name: name, Value: raw}
		}
		x[i] = v
	}
	return x, nil
}

// Probability returns the calibrated probability for record.
func (s *Service) Probability(record map[string]any) (float64, error) {
	x, err := s.Vector(record)
	if err != nil {
		return 0, err
	}
	return s.artifact.Probability(x)
}

// Score returns the full assessment for record.
func (s *Service) Score(record map[string]any) (*risk.Assessment, error) {
	p, err := s.Probability(record)
	if err != nil {
		return nil, err
	}
	return risk.Assess(p), nil
}

func toFloat(v any) (float64, error) {
	switch t := v.(type) {
	case nil:
		return math.NaN(), nil
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case int32:
		return float64(t), nil
	case json.Number:
		return parseNumber(string(t))
	case string:
		if dataset.IsMissingToken(t) {
			return math.NaN(), nil
		}
		return parseNumber(t)
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("unsupported value type %T", v)
	}
}

func parseNumber(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", s, err)
	}
	// only the missing-value tokens may produce NaN
	if math.IsNaN(f) {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return f, nil
}
