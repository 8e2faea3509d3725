package scoring

import "github.com/MikeSquared-Agency/Tender/internal/catalog"

// ApplyMustHave flags a must-have requirement whose raw score is below
// MustHaveThreshold. Under FailZeroScore the returned raw score is 0; under
// FailDisqualify it is left unchanged and only the flag is set.
func ApplyMustHave(raw float64, mustHave bool, behavior catalog.FailBehavior) (float64, bool) {
	if !mustHave || raw >= MustHaveThreshold {
		return raw, false
	}
	if behavior == catalog.FailZeroScore {
		return 0, true
	}
	return raw, true
}

// ApplyWeight scales a raw score by the requirement's weight percentage.
func ApplyWeight(raw, weightPercent float64) float64 {
	return raw * (weightPercent / 100)
}

// Summary is the caller-side aggregate of one supplier's score set.
type Summary struct {
	WeightedTotal   float64 `json:"weighted_total"`
	FailedMustHaves int     `json:"failed_must_haves"`
	Overridden      int     `json:"overridden"`
	Disqualified    bool    `json:"disqualified"`
}

// Summarize totals the weighted contributions of scores. A buyer override
// supersedes the automated score and is weighted like a raw score.
func Summarize(scores []RequirementScore, behavior catalog.FailBehavior) Summary {
	var s Summary
	for _, rs := range scores {
		if rs.BuyerOverride != nil {
			s.Overridden++
			s.WeightedTotal += ApplyWeight(rs.BuyerOverride.OverrideScore, rs.Weight)
		} else {
			s.WeightedTotal += rs.AutoScore.WeightedScore
		}
		if rs.AutoScore.FailedMustHave {
			s.FailedMustHaves++
		}
	}
	s.Disqualified = behavior == catalog.FailDisqualify && s.FailedMustHaves > 0
	return s
}
