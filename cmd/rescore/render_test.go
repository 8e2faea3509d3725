package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/MikeSquared-Agency/Tender/internal/batch"
	"github.com/MikeSquared-Agency/Tender/internal/catalog"
	"github.com/MikeSquared-Agency/Tender/internal/scoring"
	"github.com/MikeSquared-Agency/Tender/internal/store"
)

func sampleSet() *store.ScoreSet {
	return &store.ScoreSet{
		ResponseID: uuid.New(),
		Scores: []scoring.RequirementScore{
			{
				RequirementID: "price", ScoringType: catalog.TypeNumeric, Weight: 40,
				AutoScore: scoring.AutoScore{RawScore: 80, WeightedScore: 32, Method: scoring.MethodNumeric},
			},
			{
				RequirementID: "iso", ScoringType: catalog.TypePassFail, Weight: 30, MustHave: true,
				AutoScore: scoring.AutoScore{RawScore: 0, WeightedScore: 0, FailedMustHave: true, Method: scoring.MethodPassFail},
				BuyerOverride: &scoring.BuyerOverride{OverrideScore: 100, OverrideReason: "certificate supplied"},
			},
		},
	}
}

func TestRenderScores(t *testing.T) {
	var buf bytes.Buffer
	renderScores(&buf, sampleSet(), catalog.FailZeroScore)
	out := buf.String()

	assert.Contains(t, out, "price")
	assert.Contains(t, out, "FAILED")
	assert.Contains(t, out, "certificate supplied")
	// 32 from price plus the iso override weighted at 30%.
	assert.Contains(t, out, "62.00")
}

func TestRenderBatch(t *testing.T) {
	ok := &store.Response{ID: uuid.New(), SupplierName: "Acme"}
	bad := &store.Response{ID: uuid.New(), SupplierName: "Globex"}
	res := &batch.Result{
		TotalSuppliers: 2, SuccessCount: 1, FailureCount: 1,
		Failures: []batch.Failure{{ResponseID: bad.ID, Error: "decode answers: boom"}},
		Duration: 1500 * time.Millisecond,
	}
	set := sampleSet()

	var buf bytes.Buffer
	renderBatch(&buf, res, []*store.Response{ok, bad}, map[uuid.UUID]*store.ScoreSet{ok.ID: set}, catalog.FailZeroScore)
	out := buf.String()

	assert.Contains(t, out, "Acme")
	assert.Contains(t, out, "decode answers: boom")
	assert.Contains(t, out, "1/2 OK")
}

func TestFormatDetails(t *testing.T) {
	assert.Equal(t, "", formatDetails(nil))
	assert.Equal(t, "a=1 b=x", formatDetails(map[string]interface{}{"b": "x", "a": 1}))
}
