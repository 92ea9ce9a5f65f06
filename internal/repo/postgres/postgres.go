package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/mturbe/pubsubprobe/internal/domain"
	"github.com/mturbe/pubsubprobe/internal/repo"
)

var _ repo.ResultStore = (*Store)(nil)
var _ repo.AlertStore = (*Store)(nil)

type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{pool: pool, log: log}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS probe_results (
  id         BIGSERIAL PRIMARY KEY,
  status     TEXT NOT NULL,
  detail     TEXT NOT NULL DEFAULT '',
  latency_ms DOUBLE PRECISION NOT NULL,
  checked_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_probe_results_checked_at ON probe_results (checked_at DESC);

CREATE TABLE IF NOT EXISTS alert_state (
  singleton    BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (singleton),
  last_status  TEXT NOT NULL,
  last_sent_at TIMESTAMPTZ NULL
);
`

// EnsureSchema creates the tables on a fresh database.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// ---- ResultStore ----

func (s *Store) Append(ctx context.Context, r *domain.ProbeRecord) error {
	if r.CheckedAt.IsZero() {
		r.CheckedAt = time.Now().UTC()
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO probe_results (status, detail, latency_ms, checked_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		string(r.Status), r.Detail, r.LatencyMS, r.CheckedAt,
	).Scan(&r.ID)
	if err != nil {
		return fmt.Errorf("insert probe result: %w", err)
	}
	return nil
}

func (s *Store) Recent(ctx context.Context, limit int) ([]*domain.ProbeRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, status, detail, latency_ms, checked_at
		   FROM probe_results
		  ORDER BY checked_at DESC, id DESC
		  LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent: %w", err)
	}
	defer rows.Close()

	var out []*domain.ProbeRecord
	for rows.Next() {
		r, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) Latest(ctx context.Context) (*domain.ProbeRecord, error) {
	recs, err := s.Recent(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return recs[0], nil
}

func scanRecord(scan func(dest ...any) error) (*domain.ProbeRecord, error) {
	var (
		r      domain.ProbeRecord
		status string
	)
	if err := scan(&r.ID, &status, &r.Detail, &r.LatencyMS, &r.CheckedAt); err != nil {
		return nil, fmt.Errorf("scan probe result: %w", err)
	}
	r.Status = domain.Status(status)
	return &r, nil
}
