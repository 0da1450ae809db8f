package storage

import (
	"context"
	"time"
)

// Cycle is one poll run as recorded in history.
type Cycle struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	TookMS    int64     `json:"took_ms"`
	Fetched   int       `json:"fetched"`
	Matched   int       `json:"matched"`
	Notified  int       `json:"notified"`
	Result    string    `json:"result"`
	Error     string    `json:"error,omitempty"`
}

// Notification is one pool included in a delivered batch.
type Notification struct {
	ID         string    `json:"id"`
	CycleID    string    `json:"cycle_id"`
	Address    string    `json:"address"`
	ChainID    string    `json:"chain_id"`
	Exchange   string    `json:"exchange"`
	APR        float64   `json:"apr"`
	EarnFee    float64   `json:"earn_fee"`
	Volume     float64   `json:"volume"`
	Reason     string    `json:"reason"`
	NotifiedAt time.Time `json:"notified_at"`
}

// NotificationFilter narrows QueryNotifications.
type NotificationFilter struct {
	Address string
	ChainID string
	Since   time.Time
	Limit   int
}

// Storage is the audit history of cycles and notifications.
type Storage interface {
	// RecordCycle persists a cycle summary.
	RecordCycle(ctx context.Context, cycle *Cycle) error

	// RecordNotifications persists the pools notified in a cycle.
	RecordNotifications(ctx context.Context, cycleID string, items []Notification) error

	// ListCycles returns the most recent cycles, newest first.
	ListCycles(ctx context.Context, limit int) ([]Cycle, error)

	// QueryNotifications returns notifications matching filter, newest first.
	QueryNotifications(ctx context.Context, filter NotificationFilter) ([]Notification, error)

	// Close releases resources.
	Close() error
}
