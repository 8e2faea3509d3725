package scoring

import (
	"regexp"
	"strconv"
	"strings"
)

// numberPattern matches integers or decimals, optionally grouped with thousands
// separators ("1,250", "3.5", "12,000.75"). Signs are not part of the token.
var numberPattern = regexp.MustCompile(`\d{1,3}(?:,\d{3})+(?:\.\d+)?|\d+(?:\.\d+)?`)

// ExtractNumber returns the first numeric token in text.
func ExtractNumber(text string) (float64, bool) {
	tok := numberPattern.FindString(text)
	if tok == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(tok, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
