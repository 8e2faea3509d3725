package scoring

import (
	"strings"
	"unicode/utf8"

	"github.com/MikeSquared-Agency/Tender/internal/catalog"
)

// minSubstantiveLength is the trimmed length an answer must exceed to count as non-trivial.
const minSubstantiveLength = 10

// RuleScore computes the deterministic raw score for numeric, weighted and
// pass/fail requirements. Empty or unusable answers score 0; it never fails.
//
// The weighted type reuses numeric extraction with a length fallback. The
// requirement weight itself is applied later by ApplyWeight.
func RuleScore(st catalog.ScoringType, answer string, scale float64) (float64, Method) {
	switch st {
	case catalog.TypeNumeric:
		return numericScore(answer, scale), MethodNumeric
	case catalog.TypeWeighted:
		if v, ok := ExtractNumber(answer); ok {
			return clamp(v, 0, scale), MethodWeighted
		}
		if substantive(answer) {
			return 100, MethodWeighted
		}
		return 0, MethodWeighted
	default:
		return passFailScore(answer), MethodPassFail
	}
}

func numericScore(answer string, scale float64) float64 {
	v, ok := ExtractNumber(answer)
	if !ok {
		return 0
	}
	return clamp(v, 0, scale)
}

func passFailScore(answer string) float64 {
	trimmed := strings.TrimSpace(answer)
	if strings.EqualFold(trimmed, "no") || strings.EqualFold(trimmed, "n/a") {
		return 0
	}
	if utf8.RuneCountInString(trimmed) > minSubstantiveLength {
		return 100
	}
	return 0
}

// heuristicQualitativeScore is used for qualitative answers when AI scoring is off.
func heuristicQualitativeScore(answer string) float64 {
	if substantive(answer) {
		return 50
	}
	return 0
}

func substantive(answer string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(answer)) > minSubstantiveLength
}
