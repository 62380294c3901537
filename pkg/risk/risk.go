package risk

const (
	// Explanation is attached to every assessment. It is a fixed string and
	// is not derived from per-request feature contributions.
	Explanation = "Prediction driven by glucose & BMI (simplified)."

	AdviceLifestyle = "Stay consistent with healthy habits."
	AdviceConsult   = "Please consult a healthcare professional."

	// MaxTier is the highest tier the ladder produces.
	MaxTier = 5

	consultFromTier = 3
)

// step is one rung of the probability ladder: probabilities strictly
// below upper map to tier.
type step struct {
	upper float64
	tier  int
}

var (
	ladder = []step{
		{upper: 0.05, tier: 0},
		{upper: 0.15, tier: 1},
		{upper: 0.35, tier: 2},
		{upper: 0.60, tier: 3},
		{upper: 0.80, tier: 4},
	}

	labels = [MaxTier + 1]string{
		"Stable",
		"Low - Monitor",
		"Monitor - Take simple steps",
		"Action Recommended",
		"Clinical review suggested",
		"Immediate contact recommended",
	}
)

// Assessment is the human-facing interpretation of a probability.
type Assessment struct {
	Probability float64 `json:"probability" yaml:"probability"`
	Score       int     `json:"score" yaml:"score"`
	UserLabel   string  `json:"user_label" yaml:"user_label"`
	ShortAdvice string  `json:"short_advice" yaml:"short_advice"`
	Explanation string  `json:"explanation" yaml:"explanation"`
}

// Tier maps p to a tier using half-open, lower-inclusive brackets.
// The first matching rung wins; anything at or above the last bound is MaxTier.
func Tier(p float64) int {
	for _, s := range ladder {
		if p < s.upper {
			return s.tier
		}
	}
	return MaxTier
}

// Label returns the user label for tier. Out of range tiers are clamped.
func Label(tier int) string {
	return labels[clamp(tier)]
}

// Advice returns the short advice for tier.
func Advice(tier int) string {
	if clamp(tier) < consultFromTier {
		return AdviceLifestyle
	}
	return AdviceConsult
}

// Assess builds the full assessment for p.
func Assess(p float64) *Assessment {
	t := Tier(p)
	return &Assessment{
		Probability: p,
		Score:       t,
		UserLabel:   Label(t),
		ShortAdvice: Advice(t),
		Explanation: Explanation,
	}
}

func clamp(tier int) int {
	if tier < 0 {
		return 0
	}
	if tier > MaxTier {
		return MaxTier
	}
	return tier
}
