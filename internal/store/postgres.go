package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MikeSquared-Agency/Tender/internal/catalog"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) GetRFP(ctx context.Context, id uuid.UUID) (*RFP, error) {
	r := &RFP{}
	var catalogJSON, settingsJSON []byte
	err := s.pool.QueryRow(ctx, `
		SELECT rfp_id, title, catalog, settings, created_at
		FROM rfps WHERE rfp_id = $1`, id,
	).Scan(&r.ID, &r.Title, &catalogJSON, &settingsJSON, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(catalogJSON) > 0 {
		reqs, err := catalog.DecodeRequirements(catalogJSON)
		if err != nil {
			return nil, fmt.Errorf("rfp %s: %w", id, err)
		}
		r.Requirements = reqs
	}
	if len(settingsJSON) > 0 {
		r.Settings = json.RawMessage(settingsJSON)
	}
	return r, nil
}

const responseColumns = `response_id, rfp_id, supplier_id, supplier_name, answers, submitted_at`

func (s *PostgresStore) GetResponse(ctx context.Context, id uuid.UUID) (*Response, error) {
	r, err := scanResponse(s.pool.QueryRow(ctx, `
		SELECT `+responseColumns+`
		FROM supplier_responses WHERE response_id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return r, err
}

func (s *PostgresStore) ListResponses(ctx context.Context, rfpID uuid.UUID) ([]*Response, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+responseColumns+`
		FROM supplier_responses WHERE rfp_id = $1
		ORDER BY submitted_at ASC, response_id ASC`, rfpID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Response
	for rows.Next() {
		r, err := scanResponse(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanResponse(row pgx.Row) (*Response, error) {
	r := &Response{}
	var answersJSON []byte
	if err := row.Scan(&r.ID, &r.RFPID, &r.SupplierID, &r.SupplierName, &answersJSON, &r.SubmittedAt); err != nil {
		return nil, err
	}
	r.Answers = json.RawMessage(answersJSON)
	return r, nil
}

func (s *PostgresStore) GetScores(ctx context.Context, responseID uuid.UUID) (*ScoreSet, error) {
	set, err := scanScoreSet(s.pool.QueryRow(ctx, `
		SELECT response_id, rfp_id, scores, generated_at, updated_at
		FROM response_scores WHERE response_id = $1`, responseID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return set, err
}

func scanScoreSet(row pgx.Row) (*ScoreSet, error) {
	set := &ScoreSet{}
	var scoresJSON []byte
	if err := row.Scan(&set.ResponseID, &set.RFPID, &scoresJSON, &set.GeneratedAt, &set.UpdatedAt); err != nil {
		return nil, err
	}
	if len(scoresJSON) > 0 {
		if err := json.Unmarshal(scoresJSON, &set.Scores); err != nil {
			return nil, fmt.Errorf("decode scores for response %s: %w", set.ResponseID, err)
		}
	}
	return set, nil
}

func (s *PostgresStore) UpdateScores(ctx context.Context, responseID uuid.UUID, fn ScoreUpdateFn) (*ScoreSet, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// The response row always exists, so it serializes writers even before the
	// first score set is inserted.
	var rfpID uuid.UUID
	err = tx.QueryRow(ctx, `SELECT rfp_id FROM supplier_responses WHERE response_id = $1 FOR UPDATE`, responseID).Scan(&rfpID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("lock response %s: not found", responseID)
	}
	if err != nil {
		return nil, fmt.Errorf("lock response: %w", err)
	}

	prior, err := scanScoreSet(tx.QueryRow(ctx, `
		SELECT response_id, rfp_id, scores, generated_at, updated_at
		FROM response_scores WHERE response_id = $1`, responseID))
	if errors.Is(err, pgx.ErrNoRows) {
		prior = nil
	} else if err != nil {
		return nil, fmt.Errorf("read prior scores: %w", err)
	}

	next, err := fn(prior)
	if err != nil {
		return nil, err
	}
	if next == nil {
		return prior, nil
	}
	next.ResponseID = responseID
	next.RFPID = rfpID

	scoresJSON, err := json.Marshal(next.Scores)
	if err != nil {
		return nil, fmt.Errorf("encode scores: %w", err)
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO response_scores (response_id, rfp_id, scores, generated_at, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (response_id) DO UPDATE SET
			scores = EXCLUDED.scores,
			generated_at = EXCLUDED.generated_at,
			updated_at = now()
		RETURNING updated_at`,
		next.ResponseID, next.RFPID, scoresJSON, next.GeneratedAt,
	).Scan(&next.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("write scores: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit scores: %w", err)
	}
	return next, nil
}

func (s *PostgresStore) CreateActivity(ctx context.Context, e *ActivityEvent) error {
	detailsJSON, _ := json.Marshal(e.Details)
	return s.pool.QueryRow(ctx, `
		INSERT INTO scoring_activity (rfp_id, response_id, kind, details)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		e.RFPID, e.ResponseID, e.Kind, detailsJSON,
	).Scan(&e.ID, &e.CreatedAt)
}

func (s *PostgresStore) ListActivity(ctx context.Context, rfpID uuid.UUID, limit int) ([]*ActivityEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, rfp_id, response_id, kind, details, created_at
		FROM scoring_activity WHERE rfp_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, rfpID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*ActivityEvent
	for rows.Next() {
		e := &ActivityEvent{}
		var detailsJSON []byte
		if err := rows.Scan(&e.ID, &e.RFPID, &e.ResponseID, &e.Kind, &detailsJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		if detailsJSON != nil {
			_ = json.Unmarshal(detailsJSON, &e.Details)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
