package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Tender/internal/catalog"
	"github.com/MikeSquared-Agency/Tender/internal/scoring"
)

// RFP is a request for proposal with its frozen requirement catalog.
type RFP struct {
	ID           uuid.UUID             `json:"rfp_id"`
	Title        string                `json:"title"`
	Requirements []catalog.Requirement `json:"requirements"`

	// Settings is the stored scoring settings JSON, nil when the RFP has none.
	// It is decoded against injected defaults by the caller.
	Settings json.RawMessage `json:"settings,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Response is one supplier's submission against an RFP.
type Response struct {
	ID           uuid.UUID       `json:"response_id"`
	RFPID        uuid.UUID       `json:"rfp_id"`
	SupplierID   uuid.UUID       `json:"supplier_id"`
	SupplierName string          `json:"supplier_name"`
	Answers      json.RawMessage `json:"answers"`
	SubmittedAt  time.Time       `json:"submitted_at"`
}

// DecodeAnswers parses the stored answers map.
func (r *Response) DecodeAnswers() (catalog.Answers, error) {
	return catalog.DecodeAnswers(r.Answers)
}

// ScoreSet is the persisted score list for one supplier response.
type ScoreSet struct {
	ResponseID  uuid.UUID                  `json:"response_id"`
	RFPID       uuid.UUID                  `json:"rfp_id"`
	Scores      []scoring.RequirementScore `json:"scores"`
	GeneratedAt time.Time                  `json:"generated_at"`
	UpdatedAt   time.Time                  `json:"updated_at"`
}

type ActivityKind string

const (
	ActivityAIDegraded     ActivityKind = "ai_degraded"
	ActivitySupplierFailed ActivityKind = "supplier_failed"
	ActivityBatchCompleted ActivityKind = "batch_completed"
)

// ActivityEvent is an audit row for the scoring activity log.
type ActivityEvent struct {
	ID         uuid.UUID              `json:"id"`
	RFPID      uuid.UUID              `json:"rfp_id"`
	ResponseID *uuid.UUID             `json:"response_id,omitempty"`
	Kind       ActivityKind           `json:"kind"`
	Details    map[string]interface{} `json:"details,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

// ScoreUpdateFn receives the currently stored set (nil if none) and returns the
// set to store in its place.
type ScoreUpdateFn func(prior *ScoreSet) (*ScoreSet, error)

// ErrNoScores is returned when an override targets a response that was never scored.
var ErrNoScores = errors.New("no scores stored for response")

type Store interface {
	// Lookups return (nil, nil) when the row does not exist.
	GetRFP(ctx context.Context, id uuid.UUID) (*RFP, error)
	GetResponse(ctx context.Context, id uuid.UUID) (*Response, error)
	ListResponses(ctx context.Context, rfpID uuid.UUID) ([]*Response, error)
	GetScores(ctx context.Context, responseID uuid.UUID) (*ScoreSet, error)

	// UpdateScores reads the stored set under a row lock, applies fn and writes
	// the result, so concurrent writers to one response observe each other.
	UpdateScores(ctx context.Context, responseID uuid.UUID, fn ScoreUpdateFn) (*ScoreSet, error)

	CreateActivity(ctx context.Context, e *ActivityEvent) error
	ListActivity(ctx context.Context, rfpID uuid.UUID, limit int) ([]*ActivityEvent, error)

	Close() error
}

// SetOverride records or clears (o == nil) a buyer override on one requirement
// score. It is the review workflow's write path and never touches AutoScore.
func SetOverride(ctx context.Context, s Store, responseID uuid.UUID, requirementID string, o *scoring.BuyerOverride) (*ScoreSet, error) {
	return s.UpdateScores(ctx, responseID, func(prior *ScoreSet) (*ScoreSet, error) {
		if prior == nil {
			return nil, ErrNoScores
		}
		next := *prior
		next.Scores = make([]scoring.RequirementScore, len(prior.Scores))
		copy(next.Scores, prior.Scores)
		for i := range next.Scores {
			if next.Scores[i].RequirementID != requirementID {
				continue
			}
			if o == nil {
				next.Scores[i].BuyerOverride = nil
			} else {
				cp := *o
				next.Scores[i].BuyerOverride = &cp
			}
			return &next, nil
		}
		return nil, fmt.Errorf("requirement %q not in score set for response %s", requirementID, responseID)
	})
}
