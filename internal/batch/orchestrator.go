package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/MikeSquared-Agency/Tender/internal/catalog"
	"github.com/MikeSquared-Agency/Tender/internal/hermes"
	"github.com/MikeSquared-Agency/Tender/internal/lock"
	"github.com/MikeSquared-Agency/Tender/internal/metrics"
	"github.com/MikeSquared-Agency/Tender/internal/scoring"
	"github.com/MikeSquared-Agency/Tender/internal/store"
)

// Options configures an Orchestrator.
type Options struct {
	// Workers bounds how many suppliers are scored at once.
	Workers int
	// Defaults is used for RFPs without stored settings and as the base for partial ones.
	Defaults    catalog.Settings
	StripMarkup bool
}

// Failure identifies one supplier whose pipeline did not complete.
type Failure struct {
	ResponseID uuid.UUID `json:"response_id"`
	SupplierID uuid.UUID `json:"supplier_id"`
	Error      string    `json:"error"`
}

// Result tallies an RFP-wide scoring run.
type Result struct {
	RFPID          uuid.UUID     `json:"rfp_id"`
	TotalSuppliers int           `json:"total_suppliers"`
	SuccessCount   int           `json:"success_count"`
	FailureCount   int           `json:"failure_count"`
	Failures       []Failure     `json:"failures,omitempty"`
	Duration       time.Duration `json:"duration"`
}

// Orchestrator runs the per-supplier scoring pipeline across an RFP.
type Orchestrator struct {
	store      store.Store
	hermes     hermes.Client
	scorer     *scoring.Scorer
	locker     lock.Locker
	normalizer *catalog.Normalizer
	opts       Options
	logger     *slog.Logger

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

// New creates an Orchestrator. h may be nil to disable events; locker defaults
// to an in-process lock.
func New(s store.Store, h hermes.Client, scorer *scoring.Scorer, locker lock.Locker, opts Options, logger *slog.Logger) *Orchestrator {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	return &Orchestrator{
		store:      s,
		hermes:     h,
		scorer:     scorer,
		locker:     locker,
		normalizer: catalog.NewNormalizer(opts.StripMarkup),
		opts:       opts,
		logger:     logger,
	}
}

// ScoreRFP scores every supplier response on an RFP. Per-supplier failures are
// counted and never abort the batch; only input errors are returned.
func (o *Orchestrator) ScoreRFP(ctx context.Context, rfpID uuid.UUID) (*Result, error) {
	start := time.Now()
	rfp, settings, err := o.loadRFP(ctx, rfpID)
	if err != nil {
		return nil, err
	}

	responses, err := o.store.ListResponses(ctx, rfpID)
	if err != nil {
		return nil, fmt.Errorf("list responses for rfp %s: %w", rfpID, err)
	}

	o.logger.Info("scoring rfp", "rfp_id", rfpID, "suppliers", len(responses), "requirements", len(rfp.Requirements))

	var succeeded atomic.Int64
	var failuresMu sync.Mutex
	var failures []Failure

	var g errgroup.Group
	g.SetLimit(o.opts.Workers)
	for _, resp := range responses {
		g.Go(func() error {
			if _, err := o.runSupplier(ctx, rfp, settings, resp); err != nil {
				failuresMu.Lock()
				failures = append(failures, Failure{ResponseID: resp.ID, SupplierID: resp.SupplierID, Error: err.Error()})
				failuresMu.Unlock()
				return nil
			}
			succeeded.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	res := &Result{
		RFPID:          rfpID,
		TotalSuppliers: len(responses),
		SuccessCount:   int(succeeded.Load()),
		FailureCount:   len(failures),
		Failures:       failures,
		Duration:       time.Since(start),
	}
	metrics.BatchDuration.Observe(res.Duration.Seconds())
	o.logger.Info("rfp scoring complete", "rfp_id", rfpID,
		"total", res.TotalSuppliers, "succeeded", res.SuccessCount, "failed", res.FailureCount,
		"duration", res.Duration)

	o.recordActivity(ctx, &store.ActivityEvent{
		RFPID: rfpID,
		Kind:  store.ActivityBatchCompleted,
		Details: map[string]interface{}{
			"total_suppliers": res.TotalSuppliers,
			"success_count":   res.SuccessCount,
			"failure_count":   res.FailureCount,
		},
	})
	o.publish(hermes.SubjectBatchCompleted(rfpID.String()), hermes.BatchCompletedEvent{
		RFPID:          rfpID.String(),
		TotalSuppliers: res.TotalSuppliers,
		SuccessCount:   res.SuccessCount,
		FailureCount:   res.FailureCount,
		DurationMs:     res.Duration.Milliseconds(),
		CompletedAt:    time.Now().UTC(),
	})
	return res, nil
}

// ScoreResponse re-scores a single supplier response. It is always safe to
// repeat: stored buyer overrides are carried into the new score set.
func (o *Orchestrator) ScoreResponse(ctx context.Context, responseID uuid.UUID) (*store.ScoreSet, error) {
	resp, err := o.store.GetResponse(ctx, responseID)
	if err != nil {
		return nil, fmt.Errorf("load response %s: %w", responseID, err)
	}
	if resp == nil {
		return nil, &InputError{Kind: ErrResponseNotFound, ID: responseID.String()}
	}
	rfp, settings, err := o.loadRFP(ctx, resp.RFPID)
	if err != nil {
		return nil, err
	}
	return o.runSupplier(ctx, rfp, settings, resp)
}

func (o *Orchestrator) loadRFP(ctx context.Context, rfpID uuid.UUID) (*store.RFP, catalog.Settings, error) {
	rfp, err := o.store.GetRFP(ctx, rfpID)
	if errors.Is(err, catalog.ErrInvalidCatalog) {
		return nil, catalog.Settings{}, &InputError{Kind: catalog.ErrInvalidCatalog, ID: rfpID.String(), Cause: err}
	}
	if err != nil {
		return nil, catalog.Settings{}, fmt.Errorf("load rfp %s: %w", rfpID, err)
	}
	if rfp == nil {
		return nil, catalog.Settings{}, &InputError{Kind: ErrRFPNotFound, ID: rfpID.String()}
	}
	if len(rfp.Requirements) == 0 {
		return nil, catalog.Settings{}, &InputError{Kind: ErrEmptyCatalog, ID: rfpID.String()}
	}
	settings, err := catalog.DecodeSettings(rfp.Settings, o.opts.Defaults)
	if err != nil {
		return nil, catalog.Settings{}, &InputError{Kind: catalog.ErrInvalidSettings, ID: rfpID.String(), Cause: err}
	}
	return rfp, settings, nil
}

// runSupplier runs the pipeline for one response and records its outcome.
// A panic inside the pipeline is reported as that supplier's failure.
func (o *Orchestrator) runSupplier(ctx context.Context, rfp *store.RFP, settings catalog.Settings, resp *store.Response) (set *store.ScoreSet, err error) {
	defer func() {
		if r := recover(); r != nil {
			set, err = nil, fmt.Errorf("panic scoring response %s: %v", resp.ID, r)
		}
		if err != nil {
			o.supplierFailed(ctx, rfp.ID, resp, err)
		}
	}()
	return o.scoreSupplier(ctx, rfp, settings, resp)
}

func (o *Orchestrator) scoreSupplier(ctx context.Context, rfp *store.RFP, settings catalog.Settings, resp *store.Response) (*store.ScoreSet, error) {
	release, err := o.locker.Acquire(ctx, resp.ID.String())
	if err != nil {
		return nil, fmt.Errorf("acquire scoring lock: %w", err)
	}
	defer release()

	answers, err := resp.DecodeAnswers()
	if err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}
	answers = o.normalizer.Answers(answers)

	fresh, err := o.scorer.ScoreResponse(ctx, rfp.Requirements, answers, settings)
	if err != nil {
		return nil, err
	}

	var carried int
	set, err := o.store.UpdateScores(ctx, resp.ID, func(prior *store.ScoreSet) (*store.ScoreSet, error) {
		var stale []scoring.RequirementScore
		if prior != nil {
			stale = prior.Scores
		}
		merged := scoring.Merge(stale, fresh.Scores)
		carried = 0
		for _, rs := range merged {
			if rs.BuyerOverride != nil {
				carried++
			}
		}
		return &store.ScoreSet{
			ResponseID:  resp.ID,
			RFPID:       rfp.ID,
			Scores:      merged,
			GeneratedAt: fresh.GeneratedAt,
		}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("save scores: %w", err)
	}

	for _, d := range fresh.Degradations {
		o.aiDegraded(ctx, rfp.ID, resp.ID, d)
	}

	summary := scoring.Summarize(set.Scores, settings.MustHaveFailBehavior)
	metrics.SuppliersScored.WithLabelValues("success").Inc()
	o.logger.Info("supplier scored",
		"rfp_id", rfp.ID, "response_id", resp.ID, "supplier_id", resp.SupplierID,
		"requirements", len(set.Scores), "overrides_kept", carried,
		"degraded", len(fresh.Degradations), "weighted_total", summary.WeightedTotal)

	o.publish(hermes.SubjectSupplierScored(resp.ID.String()), hermes.SupplierScoredEvent{
		RFPID:           rfp.ID.String(),
		ResponseID:      resp.ID.String(),
		SupplierID:      resp.SupplierID.String(),
		Requirements:    len(set.Scores),
		WeightedTotal:   summary.WeightedTotal,
		FailedMustHaves: summary.FailedMustHaves,
		Disqualified:    summary.Disqualified,
		Degraded:        len(fresh.Degradations),
		GeneratedAt:     set.GeneratedAt,
	})
	return set, nil
}

func (o *Orchestrator) supplierFailed(ctx context.Context, rfpID uuid.UUID, resp *store.Response, err error) {
	metrics.SuppliersScored.WithLabelValues("failed").Inc()
	o.logger.Error("supplier scoring failed",
		"rfp_id", rfpID, "response_id", resp.ID, "supplier_id", resp.SupplierID, "error", err)

	respID := resp.ID
	o.recordActivity(ctx, &store.ActivityEvent{
		RFPID:      rfpID,
		ResponseID: &respID,
		Kind:       store.ActivitySupplierFailed,
		Details: map[string]interface{}{
			"supplier_id": resp.SupplierID.String(),
			"error":       err.Error(),
		},
	})
	o.publish(hermes.SubjectSupplierFailed(resp.ID.String()), hermes.SupplierFailedEvent{
		RFPID:      rfpID.String(),
		ResponseID: resp.ID.String(),
		SupplierID: resp.SupplierID.String(),
		Error:      err.Error(),
	})
}

func (o *Orchestrator) aiDegraded(ctx context.Context, rfpID, responseID uuid.UUID, d scoring.Degradation) {
	o.recordActivity(ctx, &store.ActivityEvent{
		RFPID:      rfpID,
		ResponseID: &responseID,
		Kind:       store.ActivityAIDegraded,
		Details: map[string]interface{}{
			"requirement_id": d.RequirementID,
			"reason":         d.Reason,
			"models":         d.Models,
		},
	})
	o.publish(hermes.SubjectAIDegraded(responseID.String()), hermes.AIDegradedEvent{
		RFPID:         rfpID.String(),
		ResponseID:    responseID.String(),
		RequirementID: d.RequirementID,
		Reason:        d.Reason,
		Models:        d.Models,
	})
}

// recordActivity writes an audit row. Failures are logged, never propagated.
func (o *Orchestrator) recordActivity(ctx context.Context, e *store.ActivityEvent) {
	if err := o.store.CreateActivity(ctx, e); err != nil {
		o.logger.Warn("failed to record scoring activity", "rfp_id", e.RFPID, "kind", e.Kind, "error", err)
	}
}

func (o *Orchestrator) publish(subject string, data interface{}) {
	if o.hermes == nil {
		return
	}
	if err := o.hermes.Publish(subject, data); err != nil {
		o.logger.Warn("failed to publish event", "subject", subject, "error", err)
	}
}
