package catalog

import (
	"errors"
	"testing"
)

func TestParseScoringType(t *testing.T) {
	tests := []struct {
		in      string
		want    ScoringType
		wantErr bool
	}{
		{"numeric", TypeNumeric, false},
		{"Weighted", TypeWeighted, false},
		{"pass_fail", TypePassFail, false},
		{"pass/fail", TypePassFail, false},
		{" PASS/FAIL ", TypePassFail, false},
		{"qualitative", TypeQualitative, false},
		{"ai", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseScoringType(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDecodeRequirements(t *testing.T) {
	data := []byte(`[
		{"id": "r1", "question_text": "Seats included?", "scoring_type": "numeric", "weight": 10},
		{"id": "r2", "question_text": "ISO 27001?", "scoring_type": "pass/fail", "weight": 20, "must_have": true},
		{"id": "r3", "question_text": "Describe onboarding", "scoring_type": "qualitative", "weight": 30}
	]`)

	reqs, err := DecodeRequirements(data)
	if err != nil {
		t.Fatalf("DecodeRequirements failed: %v", err)
	}
	if len(reqs) != 3 {
		t.Fatalf("expected 3 requirements, got %d", len(reqs))
	}
	if reqs[1].ScoringType != TypePassFail || !reqs[1].MustHave || reqs[1].WeightPercent != 20 {
		t.Errorf("unexpected second requirement: %+v", reqs[1])
	}
	if reqs[0].ID != "r1" || reqs[2].ID != "r3" {
		t.Error("expected catalog order preserved")
	}
}

func TestDecodeRequirementsFailsClosed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{`},
		{"object instead of array", `{"id": "r1"}`},
		{"unknown field", `[{"id": "r1", "scoring_type": "numeric", "weight": 1, "bonus": 5}]`},
		{"missing id", `[{"scoring_type": "numeric", "weight": 1}]`},
		{"blank id", `[{"id": "  ", "scoring_type": "numeric", "weight": 1}]`},
		{"unknown type", `[{"id": "r1", "scoring_type": "vibes", "weight": 1}]`},
		{"weight too high", `[{"id": "r1", "scoring_type": "numeric", "weight": 101}]`},
		{"negative weight", `[{"id": "r1", "scoring_type": "numeric", "weight": -1}]`},
		{"weight as string", `[{"id": "r1", "scoring_type": "numeric", "weight": "10"}]`},
		{"duplicate id", `[{"id": "r1", "scoring_type": "numeric", "weight": 1}, {"id": "r1", "scoring_type": "weighted", "weight": 1}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reqs, err := DecodeRequirements([]byte(tt.data))
			if err == nil {
				t.Fatalf("expected error, got %+v", reqs)
			}
			if !errors.Is(err, ErrInvalidCatalog) {
				t.Errorf("expected ErrInvalidCatalog, got %v", err)
			}
		})
	}
}

func TestDecodeAnswers(t *testing.T) {
	answers, err := DecodeAnswers([]byte(`{"r1": "250 seats", "r2": null, "r3": ""}`))
	if err != nil {
		t.Fatalf("DecodeAnswers failed: %v", err)
	}
	if answers["r1"] != "250 seats" {
		t.Errorf("unexpected r1: %q", answers["r1"])
	}
	if v, ok := answers["r2"]; !ok || v != "" {
		t.Errorf("expected null to decode as empty answer, got %q (present=%v)", v, ok)
	}

	if _, err := DecodeAnswers([]byte(`{"r1": 250}`)); !errors.Is(err, ErrInvalidAnswers) {
		t.Errorf("expected ErrInvalidAnswers for numeric answer, got %v", err)
	}
	if _, err := DecodeAnswers([]byte(`["a"]`)); !errors.Is(err, ErrInvalidAnswers) {
		t.Errorf("expected ErrInvalidAnswers for array, got %v", err)
	}
}

func TestDecodeSettings(t *testing.T) {
	defaults := DefaultSettings()

	t.Run("empty uses defaults", func(t *testing.T) {
		s, err := DecodeSettings(nil, defaults)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s != defaults {
			t.Errorf("expected defaults, got %+v", s)
		}
	})

	t.Run("partial overlay", func(t *testing.T) {
		s, err := DecodeSettings([]byte(`{"ai_enabled": true, "must_have_fail_behavior": "Disqualify"}`), defaults)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !s.AIEnabled || s.MustHaveFailBehavior != FailDisqualify {
			t.Errorf("overlay not applied: %+v", s)
		}
		if s.ScoringScale != 100 {
			t.Errorf("expected default scale kept, got %f", s.ScoringScale)
		}
	})

	t.Run("rejects bad scale", func(t *testing.T) {
		if _, err := DecodeSettings([]byte(`{"scoring_scale": 0}`), defaults); !errors.Is(err, ErrInvalidSettings) {
			t.Errorf("expected ErrInvalidSettings, got %v", err)
		}
	})

	t.Run("rejects misspelled key", func(t *testing.T) {
		_, err := DecodeSettings([]byte(`{"must_have_failure_behavior": "disqualify"}`), defaults)
		if !errors.Is(err, ErrInvalidSettings) {
			t.Errorf("expected ErrInvalidSettings, got %v", err)
		}
	})

	t.Run("rejects unknown behavior", func(t *testing.T) {
		if _, err := DecodeSettings([]byte(`{"must_have_fail_behavior": "warn"}`), defaults); !errors.Is(err, ErrInvalidSettings) {
			t.Errorf("expected ErrInvalidSettings, got %v", err)
		}
	})
}

func TestNormalizer(t *testing.T) {
	n := NewNormalizer(true)
	tests := []struct {
		in, want string
	}{
		{"  N/A  ", "N/A"},
		{"<p>Yes, we are <strong>ISO 27001</strong> certified</p>", "Yes, we are ISO 27001 certified"},
		{"Tom &amp; Jerry's support desk", "Tom & Jerry's support desk"},
		{"We propose $1,250 per seat", "We propose $1,250 per seat"},
		{"<script>alert(1)</script>no", "no"},
	}
	for _, tt := range tests {
		if got := n.Text(tt.in); got != tt.want {
			t.Errorf("Text(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	plain := NewNormalizer(false)
	if got := plain.Text(" <b>keep</b> "); got != "<b>keep</b>" {
		t.Errorf("expected markup kept when stripping disabled, got %q", got)
	}

	out := n.Answers(Answers{"r1": "<i>hello</i>"})
	if out["r1"] != "hello" {
		t.Errorf("unexpected normalized answers: %v", out)
	}
}
