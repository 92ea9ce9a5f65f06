package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mturbe/pubsubprobe/internal/domain"
	"github.com/mturbe/pubsubprobe/internal/repo"
)

func (s *Store) Get(ctx context.Context) (*repo.AlertRecord, error) {
	const q = `SELECT last_status, last_sent_at FROM alert_state WHERE singleton`
	var (
		r        repo.AlertRecord
		status   string
		lastSent *time.Time
	)
	err := s.pool.QueryRow(ctx, q).Scan(&status, &lastSent)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	r.LastStatus = domain.Status(status)
	r.LastSentAt = lastSent
	return &r, nil
}

func (s *Store) Set(ctx context.Context, last domain.Status, sentAt time.Time) error {
	const q = `
		INSERT INTO alert_state (singleton, last_status, last_sent_at)
		VALUES (TRUE, $1, $2)
		ON CONFLICT (singleton)
		DO UPDATE SET last_status=EXCLUDED.last_status, last_sent_at=EXCLUDED.last_sent_at
	`
	var ts *time.Time
	if !sentAt.IsZero() {
		ts = &sentAt
	}
	_, err := s.pool.Exec(ctx, q, string(last), ts)
	return err
}
