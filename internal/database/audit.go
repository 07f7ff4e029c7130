package database

import (
	"context"
	"time"

	"reservio/internal/audit"
)

// RecordAuditEntry appends one lifecycle action to the audit log.
func (db *DB) RecordAuditEntry(ctx context.Context, e *audit.Entry) error {
	res, err := db.ExecContext(ctx, `
		INSERT INTO audit_log (business_id, reservation_id, actor_id, action, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.BusinessID, e.ReservationID, e.ActorID, e.Action, e.Details, time.Now(),
	)
	if err != nil {
		return err
	}
	e.ID, err = res.LastInsertId()
	return err
}

// ListAuditEntries returns the audit trail of a business within [from, to),
// oldest first.
func (db *DB) ListAuditEntries(ctx context.Context, businessID string, from, to time.Time) ([]audit.Entry, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, business_id, reservation_id, actor_id, action, details, created_at
		FROM audit_log
		WHERE business_id = ? AND created_at >= ? AND created_at < ?
		ORDER BY created_at`,
		businessID, from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []audit.Entry
	for rows.Next() {
		var e audit.Entry
		if err := rows.Scan(&e.ID, &e.BusinessID, &e.ReservationID, &e.ActorID, &e.Action, &e.Details, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
