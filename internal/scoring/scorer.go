package scoring

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MikeSquared-Agency/Tender/internal/catalog"
)

// Semantic grades a qualitative answer. Implementations never fail; an
// unusable model result comes back as a degraded Judgment.
type Semantic interface {
	Score(ctx context.Context, question, answer string) Judgment
}

// Result is one scoring run over a supplier's answers.
type Result struct {
	Scores       []RequirementScore
	Degradations []Degradation
	GeneratedAt  time.Time
}

// Scorer runs the per-requirement pipeline: raw score, must-have policy, weighting.
type Scorer struct {
	semantic Semantic
	workers  int
	now      func() time.Time
	logger   *slog.Logger
}

// NewScorer creates a Scorer. semantic may be nil, in which case qualitative
// requirements always use the length heuristic.
func NewScorer(semantic Semantic, workers int, logger *slog.Logger) *Scorer {
	if workers < 1 {
		workers = 1
	}
	return &Scorer{
		semantic: semantic,
		workers:  workers,
		now:      time.Now,
		logger:   logger,
	}
}

// WithClock replaces the timestamp source.
func (s *Scorer) WithClock(now func() time.Time) *Scorer {
	s.now = now
	return s
}

// ScoreResponse scores every requirement against answers. Requirements are
// scored concurrently up to the worker limit; the output follows catalog order
// and every entry shares one GeneratedAt. A panic while scoring a requirement
// is returned as an error and no partial Result is produced.
func (s *Scorer) ScoreResponse(ctx context.Context, reqs []catalog.Requirement, answers catalog.Answers, settings catalog.Settings) (Result, error) {
	generatedAt := s.now().UTC()
	scores := make([]RequirementScore, len(reqs))
	degraded := make([]*Degradation, len(reqs))

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i, req := range reqs {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("score requirement %s: panic: %v", req.ID, r)
				}
			}()
			scores[i], degraded[i] = s.ScoreRequirement(ctx, req, answers[req.ID], settings, generatedAt)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	res := Result{Scores: scores, GeneratedAt: generatedAt}
	for _, d := range degraded {
		if d != nil {
			res.Degradations = append(res.Degradations, *d)
		}
	}
	return res, nil
}

// ScoreRequirement produces the RequirementScore for a single answer. The
// returned Degradation is non-nil only when AI scoring fell back.
func (s *Scorer) ScoreRequirement(ctx context.Context, req catalog.Requirement, answer string, settings catalog.Settings, generatedAt time.Time) (RequirementScore, *Degradation) {
	auto := AutoScore{GeneratedAt: generatedAt}
	var deg *Degradation

	if req.ScoringType == catalog.TypeQualitative {
		if settings.AIEnabled && s.semantic != nil && strings.TrimSpace(answer) != "" {
			j := s.semantic.Score(ctx, req.QuestionText, answer)
			auto.RawScore = j.RawScore
			auto.Method = MethodAISemantic
			auto.AIReasoning = j.Reasoning
			auto.AIConfidence = float64Ptr(j.Confidence)
			if j.Degraded {
				deg = &Degradation{RequirementID: req.ID, Reason: j.Reasoning, Models: j.Tried}
				s.logger.Warn("ai scoring degraded", "requirement_id", req.ID, "models", j.Tried)
			}
		} else {
			auto.RawScore = heuristicQualitativeScore(answer)
			auto.Method = MethodPassFail
		}
	} else {
		auto.RawScore, auto.Method = RuleScore(req.ScoringType, answer, settings.ScoringScale)
	}

	auto.RawScore, auto.FailedMustHave = ApplyMustHave(auto.RawScore, req.MustHave, settings.MustHaveFailBehavior)
	auto.WeightedScore = ApplyWeight(auto.RawScore, req.WeightPercent)

	return RequirementScore{
		RequirementID:      req.ID,
		QuestionText:       req.QuestionText,
		ScoringType:        req.ScoringType,
		Weight:             req.WeightPercent,
		MustHave:           req.MustHave,
		SupplierAnswerText: answer,
		AutoScore:          auto,
	}, deg
}
