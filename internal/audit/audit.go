// Package audit keeps an immutable trail of reservation lifecycle actions
// and exports per-business reports.
package audit

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Lifecycle actions recorded in the trail.
const (
	ActionCreated   = "created"
	ActionConfirmed = "confirmed"
	ActionCancelled = "cancelled"
	ActionCompleted = "completed"
)

// Entry is one recorded lifecycle action.
type Entry struct {
	ID            int64     `json:"id"`
	BusinessID    string    `json:"business_id"`
	ReservationID string    `json:"reservation_id"`
	ActorID       string    `json:"actor_id"`
	Action        string    `json:"action"`
	Details       string    `json:"details"`
	CreatedAt     time.Time `json:"created_at"`
}

// Store persists and reads audit entries.
type Store interface {
	RecordAuditEntry(ctx context.Context, e *Entry) error
	ListAuditEntries(ctx context.Context, businessID string, from, to time.Time) ([]Entry, error)
}

// Recorder writes entries best-effort: a failed append is logged and never
// fails the operation being audited.
type Recorder struct {
	store  Store
	logger zerolog.Logger
}

// NewRecorder creates an audit recorder.
func NewRecorder(store Store, logger zerolog.Logger) *Recorder {
	return &Recorder{
		store:  store,
		logger: logger.With().Str("component", "audit").Logger(),
	}
}

// Record appends a lifecycle action to the trail.
func (r *Recorder) Record(ctx context.Context, businessID, reservationID, actorID, action, details string) {
	if r == nil || r.store == nil {
		return
	}
	e := &Entry{
		BusinessID:    businessID,
		ReservationID: reservationID,
		ActorID:       actorID,
		Action:        action,
		Details:       details,
	}
	if err := r.store.RecordAuditEntry(ctx, e); err != nil {
		r.logger.Warn().Err(err).
			Str("reservation_id", reservationID).
			Str("action", action).
			Msg("failed to record audit entry")
	}
}

// List returns the trail of a business within [from, to).
func (r *Recorder) List(ctx context.Context, businessID string, from, to time.Time) ([]Entry, error) {
	return r.store.ListAuditEntries(ctx, businessID, from, to)
}
