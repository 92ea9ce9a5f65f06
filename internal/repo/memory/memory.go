package memory

import (
	"context"
	"sync"
	"time"

	"github.com/mturbe/pubsubprobe/internal/domain"
	"github.com/mturbe/pubsubprobe/internal/repo"
)

type Store struct {
	mu      sync.RWMutex
	nextID  int64
	records []*domain.ProbeRecord
	alert   *repo.AlertRecord
}

func New() *Store {
	return &Store{
		nextID:  1,
		records: make([]*domain.ProbeRecord, 0, 128),
	}
}

func (m *Store) Append(ctx context.Context, r *domain.ProbeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.CheckedAt.IsZero() {
		r.CheckedAt = time.Now().UTC()
	}
	r.ID = m.nextID
	m.nextID++
	m.records = append(m.records, r)
	return nil
}

func (m *Store) Recent(ctx context.Context, limit int) ([]*domain.ProbeRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit <= 0 || limit > len(m.records) {
		limit = len(m.records)
	}
	out := make([]*domain.ProbeRecord, 0, limit)
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.records[i])
	}
	return out, nil
}

func (m *Store) Latest(ctx context.Context) (*domain.ProbeRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.records) == 0 {
		return nil, nil
	}
	return m.records[len(m.records)-1], nil
}

func (m *Store) Get(ctx context.Context) (*repo.AlertRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.alert == nil {
		return nil, nil
	}
	cp := *m.alert
	return &cp, nil
}

func (m *Store) Set(ctx context.Context, last domain.Status, sentAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ts *time.Time
	if !sentAt.IsZero() {
		ts = &sentAt
	}
	m.alert = &repo.AlertRecord{LastStatus: last, LastSentAt: ts}
	return nil
}
