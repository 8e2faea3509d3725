// Package app wires the scoring pipeline from configuration. Both the service
// and the rescore CLI build on it.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/MikeSquared-Agency/Tender/internal/api"
	"github.com/MikeSquared-Agency/Tender/internal/batch"
	"github.com/MikeSquared-Agency/Tender/internal/config"
	"github.com/MikeSquared-Agency/Tender/internal/hermes"
	"github.com/MikeSquared-Agency/Tender/internal/llm"
	"github.com/MikeSquared-Agency/Tender/internal/lock"
	"github.com/MikeSquared-Agency/Tender/internal/scoring"
	"github.com/MikeSquared-Agency/Tender/internal/store"
)

type App struct {
	Store        *store.PostgresStore
	Hermes       hermes.Client
	Orchestrator *batch.Orchestrator

	redis   *redis.Client
	nats    *hermes.NATSClient
	closers []func()
	logger  *slog.Logger
}

// Options selects optional dependencies.
type Options struct {
	// Events connects to hermes when a URL is configured.
	Events bool
}

func New(ctx context.Context, cfg *config.Config, opts Options, logger *slog.Logger) (*App, error) {
	a := &App{logger: logger}

	defaults, err := cfg.DefaultSettings()
	if err != nil {
		return nil, fmt.Errorf("scoring defaults: %w", err)
	}

	db, err := store.NewPostgresStore(ctx, cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	a.Store = db
	a.closers = append(a.closers, func() { _ = db.Close() })
	logger.Info("connected to database")

	if opts.Events && cfg.Hermes.URL != "" {
		hc, err := hermes.NewNATSClient(ctx, cfg.Hermes.URL, logger)
		if err != nil {
			logger.Warn("failed to connect to hermes, running without events", "error", err)
		} else {
			a.Hermes = hc
			a.nats = hc
			a.closers = append(a.closers, hc.Close)
			logger.Info("connected to hermes")
		}
	}

	var locker lock.Locker
	if cfg.Redis.URL != "" {
		rdb, err := lock.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.redis = rdb
		a.closers = append(a.closers, func() { _ = rdb.Close() })
		locker = lock.NewRedisLocker(rdb, cfg.LockTTL(), logger)
		logger.Info("using redis supplier lock", "ttl", cfg.LockTTL())
	}

	client, err := newLLMClient(ctx, cfg.LLM)
	if err != nil {
		a.Close()
		return nil, err
	}

	semantic := scoring.NewSemanticScorer(client, scoring.Attempts(cfg.Models(), cfg.AITimeout()), logger).
		WithMaxLogLength(cfg.LLM.MaxLogLength)
	scorer := scoring.NewScorer(semantic, cfg.Scoring.RequirementWorkers, logger)

	a.Orchestrator = batch.New(db, a.Hermes, scorer, locker, batch.Options{
		Workers:     cfg.Batch.Workers,
		Defaults:    defaults,
		StripMarkup: cfg.Catalog.StripMarkup,
	}, logger)
	return a, nil
}

func newLLMClient(ctx context.Context, cfg config.LLMConfig) (llm.Client, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "gemini":
		return llm.NewGeminiClient(ctx, cfg.APIKey)
	case "", "http":
		return llm.NewHTTPClient(cfg.URL, cfg.APIKey), nil
	}
	return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
}

// ReadyChecks reports the dependencies the service needs to do work.
func (a *App) ReadyChecks() map[string]api.Check {
	checks := map[string]api.Check{
		"database": a.Store.Ping,
	}
	if a.nats != nil {
		checks["hermes"] = a.nats.Ping
	}
	if a.redis != nil {
		checks["redis"] = func(ctx context.Context) error { return a.redis.Ping(ctx).Err() }
	}
	return checks
}

// Close releases dependencies in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
