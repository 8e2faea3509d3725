package scoring

import (
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Tender/internal/catalog"
)

// Method records which algorithm produced an AutoScore.
type Method string

const (
	MethodNumeric    Method = "numeric"
	MethodWeighted   Method = "weighted"
	MethodPassFail   Method = "pass_fail"
	MethodAISemantic Method = "ai_semantic"
)

// MustHaveThreshold is the raw score below which a must-have requirement fails.
const MustHaveThreshold = 50.0

// AutoScore is the machine-computed part of a RequirementScore. It is replaced
// on every scoring run.
type AutoScore struct {
	RawScore       float64   `json:"raw_score"`
	WeightedScore  float64   `json:"weighted_score"`
	FailedMustHave bool      `json:"failed_must_have"`
	Method         Method    `json:"scoring_method"`
	AIReasoning    string    `json:"ai_reasoning,omitempty"`
	AIConfidence   *float64  `json:"ai_confidence,omitempty"`
	GeneratedAt    time.Time `json:"generated_at"`
}

// BuyerOverride is a reviewer's manual score. The scorer never modifies it.
type BuyerOverride struct {
	OverrideScore  float64   `json:"override_score"`
	OverrideReason string    `json:"override_reason,omitempty"`
	OverriddenAt   time.Time `json:"overridden_at"`
	OverriddenBy   uuid.UUID `json:"overridden_by_user_id"`
}

// RequirementScore is the persisted scoring unit for one requirement of one response.
type RequirementScore struct {
	RequirementID      string              `json:"requirement_id"`
	QuestionText       string              `json:"question_text"`
	ScoringType        catalog.ScoringType `json:"scoring_type"`
	Weight             float64             `json:"weight"`
	MustHave           bool                `json:"must_have"`
	SupplierAnswerText string              `json:"supplier_answer_text"`
	AutoScore          AutoScore           `json:"auto_score"`
	BuyerOverride      *BuyerOverride      `json:"buyer_override,omitempty"`
}

// Degradation describes an AI-scored requirement that fell back to a degraded result.
type Degradation struct {
	RequirementID string   `json:"requirement_id"`
	Reason        string   `json:"reason"`
	Models        []string `json:"models"`
}

func float64Ptr(v float64) *float64 { return &v }
