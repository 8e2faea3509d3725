package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// FailBehavior is the policy applied when a must-have requirement fails.
type FailBehavior string

const (
	FailZeroScore  FailBehavior = "zero_score"
	FailDisqualify FailBehavior = "disqualify"
)

func ParseFailBehavior(s string) (FailBehavior, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "zero_score":
		return FailZeroScore, nil
	case "disqualify":
		return FailDisqualify, nil
	}
	return "", fmt.Errorf("%w: unknown must-have fail behavior %q", ErrInvalidSettings, s)
}

// Settings is the per-RFP scoring configuration. RuleWeighting and AIWeighting
// are informational and not consumed by the scorer.
type Settings struct {
	AIEnabled            bool         `json:"ai_enabled"`
	RuleWeighting        float64      `json:"rule_weighting"`
	AIWeighting          float64      `json:"ai_weighting"`
	MustHaveFailBehavior FailBehavior `json:"must_have_fail_behavior"`
	ScoringScale         float64      `json:"scoring_scale"`
}

// DefaultSettings returns the settings used when an RFP has none stored.
func DefaultSettings() Settings {
	return Settings{
		AIEnabled:            false,
		RuleWeighting:        60,
		AIWeighting:          40,
		MustHaveFailBehavior: FailZeroScore,
		ScoringScale:         100,
	}
}

func (s Settings) Validate() error {
	if _, err := ParseFailBehavior(string(s.MustHaveFailBehavior)); err != nil {
		return err
	}
	if !(s.ScoringScale > 0) {
		return fmt.Errorf("%w: scoring scale must be positive, got %v", ErrInvalidSettings, s.ScoringScale)
	}
	for name, v := range map[string]float64{"rule_weighting": s.RuleWeighting, "ai_weighting": s.AIWeighting} {
		if v < 0 || v > 100 {
			return fmt.Errorf("%w: %s %.2f outside [0, 100]", ErrInvalidSettings, name, v)
		}
	}
	return nil
}

// DecodeSettings overlays stored JSON onto defaults and validates the result.
// Empty input yields the defaults; unknown keys are rejected.
func DecodeSettings(data []byte, defaults Settings) (Settings, error) {
	s := defaults
	if len(strings.TrimSpace(string(data))) == 0 || string(data) == "null" {
		return s, s.Validate()
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return Settings{}, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	behavior, err := ParseFailBehavior(string(s.MustHaveFailBehavior))
	if err != nil {
		return Settings{}, err
	}
	s.MustHaveFailBehavior = behavior
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}
