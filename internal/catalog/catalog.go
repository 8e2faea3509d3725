package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

// ScoringType selects how a requirement's raw score is computed.
type ScoringType string

const (
	TypeNumeric     ScoringType = "numeric"
	TypeWeighted    ScoringType = "weighted"
	TypePassFail    ScoringType = "pass_fail"
	TypeQualitative ScoringType = "qualitative"
)

var (
	ErrInvalidCatalog  = errors.New("invalid requirement catalog")
	ErrInvalidAnswers  = errors.New("invalid supplier answers")
	ErrInvalidSettings = errors.New("invalid scoring settings")
)

// ParseScoringType accepts the stored labels case-insensitively, including the
// "pass/fail" spelling used by older templates.
func ParseScoringType(s string) (ScoringType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "numeric":
		return TypeNumeric, nil
	case "weighted":
		return TypeWeighted, nil
	case "pass_fail", "pass/fail":
		return TypePassFail, nil
	case "qualitative":
		return TypeQualitative, nil
	}
	return "", fmt.Errorf("unknown scoring type %q", s)
}

// Requirement is one frozen scoring question of an RFP.
type Requirement struct {
	ID            string      `json:"id"`
	QuestionText  string      `json:"question_text"`
	ScoringType   ScoringType `json:"scoring_type"`
	WeightPercent float64     `json:"weight"`
	MustHave      bool        `json:"must_have"`
}

// Validate checks a single requirement definition.
func (r Requirement) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return errors.New("missing id")
	}
	if _, err := ParseScoringType(string(r.ScoringType)); err != nil {
		return err
	}
	if math.IsNaN(r.WeightPercent) || math.IsInf(r.WeightPercent, 0) {
		return fmt.Errorf("weight is not a finite number")
	}
	if r.WeightPercent < 0 || r.WeightPercent > 100 {
		return fmt.Errorf("weight %.2f outside [0, 100]", r.WeightPercent)
	}
	return nil
}

type rawRequirement struct {
	ID           string  `json:"id"`
	QuestionText string  `json:"question_text"`
	ScoringType  string  `json:"scoring_type"`
	Weight       float64 `json:"weight"`
	MustHave     bool    `json:"must_have"`
}

// DecodeRequirements parses a stored catalog snapshot. Any malformed entry
// rejects the whole catalog.
func DecodeRequirements(data []byte) ([]Requirement, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var raw []rawRequirement
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	seen := make(map[string]bool, len(raw))
	reqs := make([]Requirement, 0, len(raw))
	for i, r := range raw {
		st, err := ParseScoringType(r.ScoringType)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrInvalidCatalog, i, err)
		}
		req := Requirement{
			ID:            strings.TrimSpace(r.ID),
			QuestionText:  r.QuestionText,
			ScoringType:   st,
			WeightPercent: r.Weight,
			MustHave:      r.MustHave,
		}
		if err := req.Validate(); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrInvalidCatalog, i, err)
		}
		if seen[req.ID] {
			return nil, fmt.Errorf("%w: entry %d: duplicate id %q", ErrInvalidCatalog, i, req.ID)
		}
		seen[req.ID] = true
		reqs = append(reqs, req)
	}
	return reqs, nil
}

// Answers maps requirement id to the supplier's answer text.
type Answers map[string]string

// DecodeAnswers parses a JSON object of answer strings. Null values become
// empty answers; any other non-string value is rejected.
func DecodeAnswers(data []byte) (Answers, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAnswers, err)
	}
	answers := make(Answers, len(raw))
	for id, v := range raw {
		if string(v) == "null" {
			answers[id] = ""
			continue
		}
		var text string
		if err := json.Unmarshal(v, &text); err != nil {
			return nil, fmt.Errorf("%w: answer for %q is not a string", ErrInvalidAnswers, id)
		}
		answers[id] = text
	}
	return answers, nil
}
