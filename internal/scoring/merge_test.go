package scoring

import (
	"context"
	"fmt"
	"math/rand"
	"reflect"
	"testing"
	"testing/quick"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/Tender/internal/catalog"
)

// randomScores builds a score set over a random subset of ids r0..r11, with
// roughly a third carrying an override.
func randomScores(rng *rand.Rand, withOverrides bool) []RequirementScore {
	var out []RequirementScore
	for i := 0; i < 12; i++ {
		if rng.Intn(3) == 0 {
			continue
		}
		rs := RequirementScore{
			RequirementID:      fmt.Sprintf("r%d", i),
			QuestionText:       fmt.Sprintf("question %d", i),
			ScoringType:        catalog.TypeNumeric,
			Weight:             float64(rng.Intn(101)),
			SupplierAnswerText: fmt.Sprintf("answer %d", rng.Int()),
			AutoScore: AutoScore{
				RawScore:    float64(rng.Intn(101)),
				Method:      MethodNumeric,
				GeneratedAt: time.Unix(rng.Int63n(1<<31), 0).UTC(),
			},
		}
		if withOverrides && rng.Intn(3) == 0 {
			rs.BuyerOverride = &BuyerOverride{
				OverrideScore:  float64(rng.Intn(101)),
				OverrideReason: fmt.Sprintf("reviewed %d", rng.Int()),
				OverriddenAt:   time.Unix(rng.Int63n(1<<31), 0).UTC(),
				OverriddenBy:   uuid.New(),
			}
		}
		out = append(out, rs)
	}
	return out
}

func byID(scores []RequirementScore) map[string]RequirementScore {
	m := make(map[string]RequirementScore, len(scores))
	for _, rs := range scores {
		m[rs.RequirementID] = rs
	}
	return m
}

func quickConfig() *quick.Config { return &quick.Config{MaxCount: 500} }

func TestMergeOverridePermanence(t *testing.T) {
	prop := func(seed int64) bool {
		rng := rand.New(rand.NewSource(seed))
		stale := randomScores(rng, true)
		fresh := randomScores(rng, false)
		merged := byID(Merge(stale, fresh))
		freshIDs := byID(fresh)

		for _, old := range stale {
			if old.BuyerOverride == nil {
				continue
			}
			if _, kept := freshIDs[old.RequirementID]; !kept {
				continue
			}
			got := merged[old.RequirementID]
			if got.BuyerOverride == nil || !reflect.DeepEqual(*got.BuyerOverride, *old.BuyerOverride) {
				return false
			}
			if got.AutoScore != freshIDs[old.RequirementID].AutoScore {
				return false
			}
		}
		return true
	}
	if err := quick.Check(prop, quickConfig()); err != nil {
		t.Error(err)
	}
}

func TestMergeCompleteness(t *testing.T) {
	prop := func(seed int64) bool {
		rng := rand.New(rand.NewSource(seed))
		fresh := randomScores(rng, false)
		merged := Merge(randomScores(rng, true), fresh)
		if len(merged) != len(fresh) {
			return false
		}
		for i := range fresh {
			if merged[i].RequirementID != fresh[i].RequirementID {
				return false
			}
		}
		return true
	}
	if err := quick.Check(prop, quickConfig()); err != nil {
		t.Error(err)
	}
}

func TestMergeNoOverrideFabrication(t *testing.T) {
	prop := func(seed int64) bool {
		rng := rand.New(rand.NewSource(seed))
		stale := byID(randomScores(rng, true))
		fresh := randomScores(rng, false)
		var staleList []RequirementScore
		for _, rs := range stale {
			staleList = append(staleList, rs)
		}
		for _, rs := range Merge(staleList, fresh) {
			old, existed := stale[rs.RequirementID]
			hadOverride := existed && old.BuyerOverride != nil
			if rs.BuyerOverride != nil && !hadOverride {
				return false
			}
		}
		return true
	}
	if err := quick.Check(prop, quickConfig()); err != nil {
		t.Error(err)
	}
}

func TestMergeIdempotent(t *testing.T) {
	prop := func(seed int64) bool {
		rng := rand.New(rand.NewSource(seed))
		stale := randomScores(rng, true)
		fresh := randomScores(rng, false)
		first := Merge(stale, fresh)
		if !reflect.DeepEqual(first, Merge(stale, fresh)) {
			return false
		}
		// re-running against its own output is also stable
		return reflect.DeepEqual(first, Merge(first, fresh))
	}
	if err := quick.Check(prop, quickConfig()); err != nil {
		t.Error(err)
	}
}

func TestMergeDoesNotAliasStaleOverride(t *testing.T) {
	override := &BuyerOverride{OverrideScore: 75, OverrideReason: "site visit", OverriddenBy: uuid.New()}
	stale := []RequirementScore{{RequirementID: "r1", BuyerOverride: override}}
	fresh := []RequirementScore{{RequirementID: "r1"}, {RequirementID: "r2"}}

	merged := Merge(stale, fresh)
	require.Len(t, merged, 2)
	require.NotNil(t, merged[0].BuyerOverride)
	assert.Equal(t, *override, *merged[0].BuyerOverride)
	assert.Nil(t, merged[1].BuyerOverride)

	merged[0].BuyerOverride.OverrideScore = 1
	assert.Equal(t, 75.0, override.OverrideScore)
	assert.Nil(t, fresh[0].BuyerOverride, "fresh input must not be mutated")
}

func TestMergeDropsRemovedRequirements(t *testing.T) {
	stale := []RequirementScore{
		{RequirementID: "gone", BuyerOverride: &BuyerOverride{OverrideScore: 10}},
		{RequirementID: "kept"},
	}
	merged := Merge(stale, []RequirementScore{{RequirementID: "kept"}, {RequirementID: "new"}})
	assert.Equal(t, []string{"kept", "new"}, []string{merged[0].RequirementID, merged[1].RequirementID})
	assert.Nil(t, merged[1].BuyerOverride)
}

// Re-running the full pipeline with new answer text leaves the override intact
// while the automated score tracks the new input.
func TestRescorePreservesOverride(t *testing.T) {
	reqs := []catalog.Requirement{
		{ID: "price", ScoringType: catalog.TypeNumeric, WeightPercent: 60},
		{ID: "support", ScoringType: catalog.TypePassFail, WeightPercent: 40},
	}
	s := newTestScorer(nil)
	settings := catalog.DefaultSettings()

	first, err := s.ScoreResponse(context.Background(), reqs, catalog.Answers{"price": "40", "support": "no"}, settings)
	require.NoError(t, err)
	override := BuyerOverride{OverrideScore: 95, OverrideReason: "verified on call", OverriddenAt: fixedNow, OverriddenBy: uuid.New()}
	stored := Merge(nil, first.Scores)
	stored[0].BuyerOverride = &override

	for _, answer := range []string{"85", "12 per unit", "", "not a number"} {
		second, err := s.ScoreResponse(context.Background(), reqs, catalog.Answers{"price": answer, "support": "yes, 24/7 coverage"}, settings)
		require.NoError(t, err)
		merged := Merge(stored, second.Scores)

		require.NotNil(t, merged[0].BuyerOverride)
		assert.Equal(t, override, *merged[0].BuyerOverride)
		assert.Equal(t, second.Scores[0].AutoScore, merged[0].AutoScore)
		assert.Equal(t, answer, merged[0].SupplierAnswerText)
		assert.Nil(t, merged[1].BuyerOverride)
		assert.Equal(t, 100.0, merged[1].AutoScore.RawScore)
		stored = merged
	}
}
