package domain

import "time"

// Status is the terminal classification of a single probe.
type Status string

const (
	StatusUp      Status = "up"
	StatusDown    Status = "down"
	StatusUnknown Status = "unknown"
)

// ProbeRecord is one stored probe outcome.
type ProbeRecord struct {
	ID        int64     `json:"id,omitempty"`
	Status    Status    `json:"status"`
	Detail    string    `json:"detail,omitempty"`
	LatencyMS float64   `json:"latency_ms"`
	CheckedAt time.Time `json:"checked_at"`
}
