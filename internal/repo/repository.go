package repo

import (
	"context"

	"github.com/mturbe/pubsubprobe/internal/domain"
)

// Ports (interfaces) — swap in any DB adapter later.
type ResultStore interface {
	Append(ctx context.Context, r *domain.ProbeRecord) error
	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]*domain.ProbeRecord, error)
	// Latest returns nil, nil when nothing has been recorded yet.
	Latest(ctx context.Context) (*domain.ProbeRecord, error)
}
