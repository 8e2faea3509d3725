package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Tender/internal/hermes"
)

// SetupSubscriptions listens for score requests. Each accepted request runs in
// the background until done; Stop waits for them.
func (o *Orchestrator) SetupSubscriptions() error {
	if o.hermes == nil {
		return nil
	}
	err := o.hermes.Subscribe(hermes.SubjectScoringRequest, func(_ string, data []byte) {
		var req hermes.ScoreRequestEvent
		if err := json.Unmarshal(data, &req); err != nil {
			o.logger.Warn("invalid score request event", "error", err)
			return
		}
		if !o.track() {
			o.logger.Warn("ignoring score request during shutdown", "rfp_id", req.RFPID, "response_id", req.ResponseID)
			return
		}
		go func() {
			defer o.wg.Done()
			o.handleRequest(context.Background(), req)
		}()
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", hermes.SubjectScoringRequest, err)
	}
	return nil
}

// Stop refuses new requests and waits for in-flight runs to finish.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	o.stopped = true
	o.mu.Unlock()
	o.wg.Wait()
}

func (o *Orchestrator) track() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopped {
		return false
	}
	o.wg.Add(1)
	return true
}

func (o *Orchestrator) handleRequest(ctx context.Context, req hermes.ScoreRequestEvent) {
	if req.ResponseID != "" {
		id, err := uuid.Parse(req.ResponseID)
		if err != nil {
			o.logger.Warn("invalid response id in score request", "response_id", req.ResponseID, "error", err)
			return
		}
		if _, err := o.ScoreResponse(ctx, id); err != nil {
			o.logRequestError(req, err)
		}
		return
	}

	id, err := uuid.Parse(req.RFPID)
	if err != nil {
		o.logger.Warn("invalid rfp id in score request", "rfp_id", req.RFPID, "error", err)
		return
	}
	if _, err := o.ScoreRFP(ctx, id); err != nil {
		o.logRequestError(req, err)
	}
}

func (o *Orchestrator) logRequestError(req hermes.ScoreRequestEvent, err error) {
	var inputErr *InputError
	if errors.As(err, &inputErr) {
		o.logger.Warn("score request rejected", "rfp_id", req.RFPID, "response_id", req.ResponseID, "requested_by", req.RequestedBy, "error", err)
		return
	}
	o.logger.Error("score request failed", "rfp_id", req.RFPID, "response_id", req.ResponseID, "requested_by", req.RequestedBy, "error", err)
}
