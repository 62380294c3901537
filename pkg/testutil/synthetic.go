package testutil

import (
	"encoding/csv"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/mchmarny/riskscore/pkg/dataset"
)

// Seed used by the fixtures so every test sees the same cohort.
const Seed = 42

// LowRiskRecord is a plausible, healthy request body.
func LowRiskRecord() map[string]any {
	return map[string]any{
		"Pregnancies":              1,
		"Glucose":                  85,
		"BloodPressure":            66,
		"SkinThickness":            20,
		"Insulin":                  80,
		"BMI":                      22,
		"DiabetesPedigreeFunction": 0.2,
		"Age":                      25,
	}
}

// HighRiskRecord is a request body with strongly elevated markers.
func HighRiskRecord() map[string]any {
	return map[string]any{
		"Pregnancies":              6,
		"Glucose":                  200,
		"BloodPressure":            90,
		"SkinThickness":            40,
		"Insulin":                  250,
		"BMI":                      40,
		"DiabetesPedigreeFunction": 1.1,
		"Age":                      60,
	}
}

// CohortCSV renders a synthetic cohort whose outcome depends mostly on
// glucose, BMI and age. Some cells are left empty or "NA".
func CohortCSV(rows int, seed uint64) string {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	var sb strings.Builder
	w := csv.NewWriter(&sb)
	_ = w.Write(append(append([]string(nil), dataset.DefaultFeatures...), dataset.LabelColumn))

	for i := 0; i < rows; i++ {
		preg := float64(r.IntN(11))
		glucose := clip(120+30*r.NormFloat64(), 50, 220)
		bp := clip(70+12*r.NormFloat64(), 30, 120)
		skin := clip(28+9*r.NormFloat64(), 5, 70)
		insulin := clip(100+60*r.NormFloat64(), 0, 600)
		bmi := clip(32+7*r.NormFloat64(), 16, 60)
		dpf := 0.1 + 1.4*r.Float64()
		age := float64(21 + r.IntN(55))

		logit := 0.08*(glucose-120) + 0.15*(bmi-32) + 0.05*(age-35) - 0.5
		outcome := 0
		if r.Float64() < 1/(1+math.Exp(-logit)) {
			outcome = 1
		}

		rec := []string{
			format(preg),
			format(glucose),
			format(bp),
			format(skin),
			format(insulin),
			format(bmi),
			format(dpf),
			format(age),
			strconv.Itoa(outcome),
		}
		if i%17 == 5 {
			rec[3] = ""
		}
		if i%29 == 7 {
			rec[4] = "NA"
		}
		_ = w.Write(rec)
	}

	w.Flush()
	return sb.String()
}

// WriteCohort writes CohortCSV into a temp dir and returns its path.
func WriteCohort(t *testing.T, rows int) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "data", "diabetes.csv")
	if err := os.MkdirAll(filepath.Dir(p), 0700); err != nil {
		t.Fatalf("failed to create dataset dir: %v", err)
	}
	if err := os.WriteFile(p, []byte(CohortCSV(rows, Seed)), 0600); err != nil {
		t.Fatalf("failed to write dataset: %v", err)
	}
	return p
}

// Cohort loads a synthetic cohort as a dataset.
func Cohort(t *testing.T, rows int) *dataset.Dataset {
	t.Helper()
	d, err := dataset.Read(strings.NewReader(CohortCSV(rows, Seed)), dataset.DefaultFeatures)
	if err != nil {
		t.Fatalf("failed to read synthetic cohort: %v", err)
	}
	return d
}

func clip(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func format(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
