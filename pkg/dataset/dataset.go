package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
)

const (
	// LabelColumn holds the binary outcome (0/1).
	LabelColumn = "Outcome"

	utf8BOM = "\ufeff"
)

var (
	// DefaultFeatures is the fixed feature schema, in declared order.
	DefaultFeatures = []string{
		"Pregnancies",
		"Glucose",
		"BloodPressure",
		"SkinThickness",
		"Insulin",
		"BMI",
		"DiabetesPedigreeFunction",
		"Age",
	}

	// ErrDatasetNotFound is matched by errors.Is on a *NotFoundError.
	ErrDatasetNotFound = errors.New("dataset not found")

	missingTokens = map[string]bool{
		"":        true,
		"NA":      true,
		"N/A":     true,
		"n/a":     true,
		"NaN":     true,
		"nan":     true,
		"-NaN":    true,
		"-nan":    true,
		"null":    true,
		"NULL":    true,
		"None":    true,
		"#N/A":    true,
		"<NA>":    true,
		"#NA":     true,
		"1.#IND":  true,
		"1.#QNAN": true,
	}
)

// NotFoundError reports a dataset file that does not exist.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Missing %s: please place your CSV there", e.Path)
}

func (e *NotFoundError) Unwrap() error {
	return ErrDatasetNotFound
}

// SchemaMismatchError names the first declared column absent from the header.
type SchemaMismatchError struct {
	Column string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("Missing column %s in CSV. Please rename CSV headers or adjust the features list.", e.Column)
}

// Dataset is a feature matrix with binary labels. Missing cells are NaN.
type Dataset struct {
	Path     string
	Features []string
	X        [][]float64
	Y        []int
}

// Rows returns the number of samples.
func (d *Dataset) Rows() int {
	return len(d.X)
}

// IsMissingToken reports whether s is one of the recognized NA markers.
func IsMissingToken(s string) bool {
	return missingTokens[strings.TrimSpace(s)]
}

// Load reads the CSV file at path, keeping only the declared features and the label.
func Load(path string, features []string) (*Dataset, error) {
	if path == "" {
		return nil, errors.New("dataset path required")
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &NotFoundError{Path: path}
		}
		return nil, fmt.Errorf("error opening dataset: %s: %w", path, err)
	}
	defer f.Close()

	d, err := Read(f, features)
	if err != nil {
		return nil, err
	}
	d.Path = path

	slog.Debug("dataset loaded", "path", path, "rows", d.Rows(), "features", len(d.Features))
	return d, nil
}

// Read parses CSV content from r.
func Read(r io.Reader, features []string) (*Dataset, error) {
	if len(features) == 0 {
		return nil, errors.New("at least one feature required")
	}

	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("dataset is empty")
		}
		return nil, fmt.Errorf("error reading dataset header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		if _, ok := index[h]; !ok {
			index[h] = i
		}
	}

	cols := make([]int, len(features))
	for i, name := range features {
		pos, ok := index[name]
		if !ok {
			return nil, &SchemaMismatchError{Column: name}
		}
		cols[i] = pos
	}

	labelCol, ok := index[LabelColumn]
	if !ok {
		return nil, fmt.Errorf("label column %s not found in dataset", LabelColumn)
	}

	d := &Dataset{
		Features: append([]string(nil), features...),
		X:        make([][]float64, 0),
		Y:        make([]int, 0),
	}

	// header is line 1
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("error reading dataset line %d: %w", line, err)
		}

		row := make([]float64, len(cols))
		for i, c := range cols {
			v, err := parseCell(rec[c])
			if err != nil {
				return nil, fmt.Errorf("line %d, column %s: %w", line, features[i], err)
			}
			row[i] = v
		}

		y, err := parseLabel(rec[labelCol])
		if err != nil {
			return nil, fmt.Errorf("line %d, column %s: %w", line, LabelColumn, err)
		}

		d.X = append(d.X, row)
		d.Y = append(d.Y, y)
	}

	if d.Rows() == 0 {
		return nil, errors.New("dataset has no rows")
	}

	return d, nil
}

func parseCell(s string) (float64, error) {
	if IsMissingToken(s) {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid numeric value %q", s)
	}
	return v, nil
}

func parseLabel(s string) (int, error) {
	if IsMissingToken(s) {
		return 0, errors.New("missing label")
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid label %q", s)
	}
	return int(v), nil
}
