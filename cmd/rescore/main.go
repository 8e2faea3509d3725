// rescore runs a scoring pass from the command line and prints the outcome.
//
// Usage:
//
//	rescore -config tender.yaml -rfp <rfp-id>
//	rescore -config tender.yaml -response <response-id>
//	rescore -config tender.yaml -rfp <rfp-id> -activity 20
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Tender/internal/app"
	"github.com/MikeSquared-Agency/Tender/internal/catalog"
	"github.com/MikeSquared-Agency/Tender/internal/config"
	"github.com/MikeSquared-Agency/Tender/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	rfpFlag := flag.String("rfp", "", "score every response of this RFP")
	responseFlag := flag.String("response", "", "score a single supplier response")
	activity := flag.Int("activity", 0, "after scoring, show this many recent activity rows for the RFP")
	flag.Parse()

	if (*rfpFlag == "") == (*responseFlag == "") {
		log.Fatal("exactly one of -rfp or -response is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := config.NewLogger(cfg.Logging, os.Stderr)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(ctx, cfg, app.Options{}, logger)
	if err != nil {
		log.Fatalf("start: %v", err)
	}
	defer a.Close()

	var rfpID uuid.UUID
	if *responseFlag != "" {
		id, err := uuid.Parse(*responseFlag)
		if err != nil {
			log.Fatalf("parse -response: %v", err)
		}
		set, err := a.Orchestrator.ScoreResponse(ctx, id)
		if err != nil {
			log.Fatalf("score response: %v", err)
		}
		rfpID = set.RFPID
		renderScores(os.Stdout, set, behaviorFor(ctx, a.Store, cfg, rfpID))
	} else {
		id, err := uuid.Parse(*rfpFlag)
		if err != nil {
			log.Fatalf("parse -rfp: %v", err)
		}
		rfpID = id
		res, err := a.Orchestrator.ScoreRFP(ctx, id)
		if err != nil {
			log.Fatalf("score rfp: %v", err)
		}
		responses, err := a.Store.ListResponses(ctx, id)
		if err != nil {
			log.Fatalf("list responses: %v", err)
		}
		behavior := behaviorFor(ctx, a.Store, cfg, id)
		sets := make(map[uuid.UUID]*store.ScoreSet, len(responses))
		for _, r := range responses {
			set, err := a.Store.GetScores(ctx, r.ID)
			if err != nil {
				log.Printf("load scores for %s: %v", r.ID, err)
				continue
			}
			if set != nil {
				sets[r.ID] = set
			}
		}
		renderBatch(os.Stdout, res, responses, sets, behavior)
	}

	if *activity > 0 {
		events, err := a.Store.ListActivity(ctx, rfpID, *activity)
		if err != nil {
			log.Fatalf("list activity: %v", err)
		}
		renderActivity(os.Stdout, events)
	}
}

// behaviorFor resolves the must-have policy the scorer applied to the RFP.
func behaviorFor(ctx context.Context, s store.Store, cfg *config.Config, rfpID uuid.UUID) catalog.FailBehavior {
	defaults, err := cfg.DefaultSettings()
	if err != nil {
		defaults = catalog.DefaultSettings()
	}
	rfp, err := s.GetRFP(ctx, rfpID)
	if err != nil || rfp == nil {
		return defaults.MustHaveFailBehavior
	}
	settings, err := catalog.DecodeSettings(rfp.Settings, defaults)
	if err != nil {
		return defaults.MustHaveFailBehavior
	}
	return settings.MustHaveFailBehavior
}
