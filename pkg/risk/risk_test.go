package risk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTier(t *testing.T) {
	tests := []struct {
		p    float64
		want int
	}{
		{0, 0},
		{0.01, 0},
		{math.Nextafter(0.05, 0), 0},
		{0.05, 1},
		{0.10, 1},
		{0.15, 2},
		{0.349, 2},
		{0.35, 3},
		{0.599999, 3},
		{0.60, 4},
		{0.79, 4},
		{0.80, 5},
		{0.95, 5},
		{1, 5},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Tier(tt.p), "p=%v", tt.p)
	}
}

func TestTier_LowerBracketDense(t *testing.T) {
	for p := 0.0; p < 0.05; p += 0.0005 {
		assert.Equal(t, 0, Tier(p), "p=%v", p)
	}
}

func TestLabel(t *testing.T) {
	tests := []struct {
		tier int
		want string
	}{
		{0, "Stable"},
		{1, "Low - Monitor"},
		{2, "Monitor - Take simple steps"},
		{3, "Action Recommended"},
		{4, "Clinical review suggested"},
		{5, "Immediate contact recommended"},
		{-1, "Stable"},
		{9, "Immediate contact recommended"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Label(tt.tier))
	}
}

func TestAdvice(t *testing.T) {
	for tier := 0; tier <= 2; tier++ {
		assert.Equal(t, AdviceLifestyle, Advice(tier))
	}
	for tier := 3; tier <= MaxTier; tier++ {
		assert.Equal(t, AdviceConsult, Advice(tier))
	}
}

func TestAssess(t *testing.T) {
	a := Assess(0.42)
	assert.Equal(t, 0.42, a.Probability)
	assert.Equal(t, 3, a.Score)
	assert.Equal(t, "Action Recommended", a.UserLabel)
	assert.Equal(t, AdviceConsult, a.ShortAdvice)
	assert.Equal(t, Explanation, a.Explanation)
}

func TestAssess_SameProbabilitySameResult(t *testing.T) {
	assert.Equal(t, Assess(0.12), Assess(0.12))
}
