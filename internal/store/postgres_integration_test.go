//go:build integration

package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Tender/internal/catalog"
	"github.com/MikeSquared-Agency/Tender/internal/scoring"
)

func setupTestDB(t *testing.T) *PostgresStore {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	s, err := NewPostgresStore(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}

	t.Cleanup(func() {
		_, _ = s.pool.Exec(ctx, "TRUNCATE scoring_activity, response_scores, supplier_responses, rfps CASCADE")
		s.Close()
	})

	return s
}

func seedRFP(t *testing.T, s *PostgresStore, catalogJSON string) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	err := s.pool.QueryRow(context.Background(),
		`INSERT INTO rfps (title, catalog) VALUES ($1, $2) RETURNING rfp_id`,
		"Managed IT services", []byte(catalogJSON),
	).Scan(&id)
	if err != nil {
		t.Fatalf("seed rfp: %v", err)
	}
	return id
}

func seedResponse(t *testing.T, s *PostgresStore, rfpID uuid.UUID, name, answersJSON string) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	err := s.pool.QueryRow(context.Background(),
		`INSERT INTO supplier_responses (rfp_id, supplier_id, supplier_name, answers)
		 VALUES ($1, $2, $3, $4) RETURNING response_id`,
		rfpID, uuid.New(), name, []byte(answersJSON),
	).Scan(&id)
	if err != nil {
		t.Fatalf("seed response: %v", err)
	}
	return id
}

func TestGetRFPDecodesCatalog(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	id := seedRFP(t, s, `[{"id":"price","question_text":"Price per seat","scoring_type":"numeric","weight":40,"must_have":false}]`)
	got, err := s.GetRFP(ctx, id)
	if err != nil {
		t.Fatalf("GetRFP failed: %v", err)
	}
	if got == nil || len(got.Requirements) != 1 {
		t.Fatalf("unexpected rfp: %+v", got)
	}
	if got.Requirements[0].ScoringType != catalog.TypeNumeric || got.Requirements[0].WeightPercent != 40 {
		t.Errorf("unexpected requirement: %+v", got.Requirements[0])
	}
	if got.Settings != nil {
		t.Errorf("expected nil settings, got %s", got.Settings)
	}

	missing, err := s.GetRFP(ctx, uuid.New())
	if err != nil || missing != nil {
		t.Errorf("expected (nil, nil) for missing rfp, got (%v, %v)", missing, err)
	}
}

func TestGetRFPRejectsMalformedCatalog(t *testing.T) {
	s := setupTestDB(t)
	id := seedRFP(t, s, `[{"id":"x","scoring_type":"astrology","weight":10}]`)
	_, err := s.GetRFP(context.Background(), id)
	if !errors.Is(err, catalog.ErrInvalidCatalog) {
		t.Errorf("expected ErrInvalidCatalog, got %v", err)
	}
}

func TestListResponses(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	rfpID := seedRFP(t, s, `[]`)
	seedResponse(t, s, rfpID, "Acme", `{"price":"10"}`)
	seedResponse(t, s, rfpID, "Globex", `{"price":"12"}`)

	got, err := s.ListResponses(ctx, rfpID)
	if err != nil {
		t.Fatalf("ListResponses failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 responses, got %d", len(got))
	}
	answers, err := got[0].DecodeAnswers()
	if err != nil {
		t.Fatalf("DecodeAnswers failed: %v", err)
	}
	if answers["price"] == "" {
		t.Errorf("expected price answer, got %v", answers)
	}
}

func TestUpdateScoresAndOverride(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	rfpID := seedRFP(t, s, `[]`)
	respID := seedResponse(t, s, rfpID, "Acme", `{}`)
	generated := time.Now().UTC().Truncate(time.Microsecond)

	_, err := s.UpdateScores(ctx, respID, func(prior *ScoreSet) (*ScoreSet, error) {
		if prior != nil {
			t.Errorf("expected no prior scores, got %+v", prior)
		}
		return &ScoreSet{
			Scores: []scoring.RequirementScore{{
				RequirementID: "price",
				Weight:        40,
				AutoScore:     scoring.AutoScore{RawScore: 60, WeightedScore: 24, Method: scoring.MethodNumeric, GeneratedAt: generated},
			}},
			GeneratedAt: generated,
		}, nil
	})
	if err != nil {
		t.Fatalf("UpdateScores failed: %v", err)
	}

	o := &scoring.BuyerOverride{OverrideScore: 80, OverrideReason: "negotiated", OverriddenAt: generated, OverriddenBy: uuid.New()}
	if _, err := SetOverride(ctx, s, respID, "price", o); err != nil {
		t.Fatalf("SetOverride failed: %v", err)
	}

	got, err := s.GetScores(ctx, respID)
	if err != nil {
		t.Fatalf("GetScores failed: %v", err)
	}
	if got.RFPID != rfpID || len(got.Scores) != 1 {
		t.Fatalf("unexpected score set: %+v", got)
	}
	ov := got.Scores[0].BuyerOverride
	if ov == nil || ov.OverrideScore != 80 || ov.OverriddenBy != o.OverriddenBy || !ov.OverriddenAt.Equal(o.OverriddenAt) {
		t.Errorf("override not persisted: %+v", ov)
	}
	if got.Scores[0].AutoScore.RawScore != 60 {
		t.Errorf("expected auto score untouched, got %v", got.Scores[0].AutoScore.RawScore)
	}
}

func TestCreateAndListActivity(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	rfpID := seedRFP(t, s, `[]`)
	respID := seedResponse(t, s, rfpID, "Acme", `{}`)

	e := &ActivityEvent{RFPID: rfpID, ResponseID: &respID, Kind: ActivityAIDegraded, Details: map[string]interface{}{"requirement_id": "q1"}}
	if err := s.CreateActivity(ctx, e); err != nil {
		t.Fatalf("CreateActivity failed: %v", err)
	}
	if e.ID == uuid.Nil || e.CreatedAt.IsZero() {
		t.Fatal("expected id and created_at to be set")
	}

	events, err := s.ListActivity(ctx, rfpID, 10)
	if err != nil {
		t.Fatalf("ListActivity failed: %v", err)
	}
	if len(events) != 1 || events[0].Kind != ActivityAIDegraded {
		t.Fatalf("unexpected events: %+v", events)
	}
	raw, _ := json.Marshal(events[0].Details)
	if string(raw) != `{"requirement_id":"q1"}` {
		t.Errorf("unexpected details: %s", raw)
	}
}
