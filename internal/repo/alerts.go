package repo

import (
	"context"
	"time"

	"github.com/mturbe/pubsubprobe/internal/domain"
)

// AlertRecord holds the last-known probe status and the last time we sent a
// notification. There is a single probed backend, so there is one record.
// last_sent_at drives the cooldown for repeated down alerts.
type AlertRecord struct {
	LastStatus domain.Status
	LastSentAt *time.Time
}

// AlertStore is implemented by a persistence layer to store alert state.
type AlertStore interface {
	// Get returns nil, nil if there's no record yet.
	Get(ctx context.Context) (*AlertRecord, error)
	// Set upserts the record. If sentAt.IsZero() we store NULL for last_sent_at.
	Set(ctx context.Context, last domain.Status, sentAt time.Time) error
}
