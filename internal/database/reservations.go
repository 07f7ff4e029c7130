package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"reservio/internal/domain"
	"reservio/internal/models"
	"reservio/internal/schedule"
)

// CreateReservation runs the booking gates and the insert inside one
// immediate transaction so two concurrent overlapping requests cannot both
// commit: daily-uniqueness, overlap, operating hours, then the pending row.
func (db *DB) CreateReservation(ctx context.Context, r *models.Reservation, week models.WeeklySchedule) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	// The driver stores time.Time as TEXT in the value's own offset, and
	// sqlite compares those strings lexicographically. Normalize to UTC so
	// range comparisons order by instant, not by representation.
	r.StartTime = r.StartTime.UTC()
	r.EndTime = r.EndTime.UTC()

	sameDay, err := db.hasActiveReservationSameDay(ctx, tx, r.CustomerID, r.BusinessID, r.StartTime)
	if err != nil {
		return fmt.Errorf("check daily uniqueness: %w", err)
	}
	if sameDay {
		return domain.Conflictf("active reservation already exists for this business today")
	}

	booked, err := db.isSlotBooked(ctx, tx, r.BusinessID, r.StartTime, r.EndTime)
	if err != nil {
		return fmt.Errorf("check overlap: %w", err)
	}
	if booked {
		return domain.Conflictf("slot already booked")
	}

	if err := schedule.WithinHours(week, r.StartTime.In(db.loc), r.EndTime.In(db.loc)); err != nil {
		return err
	}

	now := time.Now()
	r.Status = models.StatusPending
	r.Active = true
	r.CreatedAt = now
	r.UpdatedAt = now
	r.Version = 1

	_, err = tx.ExecContext(ctx, `
		INSERT INTO reservations (id, business_id, customer_id, start_time, end_time,
			number_of_people, status, active, created_at, updated_at, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.BusinessID, r.CustomerID, r.StartTime, r.EndTime,
		r.NumberOfPeople, r.Status, r.Active, r.CreatedAt, r.UpdatedAt, r.Version,
	)
	if err != nil {
		return fmt.Errorf("insert reservation: %w", err)
	}

	return tx.Commit()
}

// GetReservation loads a reservation by id.
func (db *DB) GetReservation(ctx context.Context, id string) (*models.Reservation, error) {
	return scanReservation(db.QueryRowContext(ctx, `
		SELECT id, business_id, customer_id, start_time, end_time,
		       number_of_people, status, active, created_at, updated_at, version
		FROM reservations WHERE id = ?`, id))
}

// ListReservationsByBusiness returns all reservations of a business, newest
// start first.
func (db *DB) ListReservationsByBusiness(ctx context.Context, businessID string) ([]models.Reservation, error) {
	return db.listReservations(ctx, `
		SELECT id, business_id, customer_id, start_time, end_time,
		       number_of_people, status, active, created_at, updated_at, version
		FROM reservations WHERE business_id = ? ORDER BY start_time DESC`, businessID)
}

// ListReservationsByCustomer returns all reservations made by a customer.
func (db *DB) ListReservationsByCustomer(ctx context.Context, customerID string) ([]models.Reservation, error) {
	return db.listReservations(ctx, `
		SELECT id, business_id, customer_id, start_time, end_time,
		       number_of_people, status, active, created_at, updated_at, version
		FROM reservations WHERE customer_id = ? ORDER BY start_time DESC`, customerID)
}

// IsSlotBooked reports whether any non-terminal reservation overlaps
// [start, end). Touching endpoints do not conflict.
func (db *DB) IsSlotBooked(ctx context.Context, businessID string, start, end time.Time) (bool, error) {
	return db.isSlotBooked(ctx, db.DB, businessID, start, end)
}

func (db *DB) isSlotBooked(ctx context.Context, q querier, businessID string, start, end time.Time) (bool, error) {
	var count int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM reservations
		WHERE business_id = ?
		AND start_time < ? AND end_time > ?
		AND status IN ('pending', 'confirmed')`,
		businessID, end.UTC(), start.UTC(),
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// HasActiveReservationSameDay reports whether the customer already holds a
// pending or confirmed reservation at the business on the calendar day of
// startTime, in the deployment zone.
func (db *DB) HasActiveReservationSameDay(ctx context.Context, customerID, businessID string, startTime time.Time) (bool, error) {
	return db.hasActiveReservationSameDay(ctx, db.DB, customerID, businessID, startTime)
}

func (db *DB) hasActiveReservationSameDay(ctx context.Context, q querier, customerID, businessID string, startTime time.Time) (bool, error) {
	dayStart, dayEnd := models.DayBounds(startTime, db.loc)

	var count int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM reservations
		WHERE customer_id = ? AND business_id = ?
		AND start_time >= ? AND start_time < ?
		AND status IN ('pending', 'confirmed')`,
		customerID, businessID, dayStart.UTC(), dayEnd.UTC(),
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// TransitionStatus applies from -> to with compare-and-swap semantics: if a
// concurrent transition already moved the reservation out of `from`, the
// update touches zero rows and the caller gets a conflict naming the status
// it lost to.
func (db *DB) TransitionStatus(ctx context.Context, id string, from, to models.Status) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := db.swapStatus(ctx, tx, id, from, to); err != nil {
		return err
	}
	return tx.Commit()
}

// CancelReservation flips the reservation to cancelled and writes the
// cancellation record in the same transaction.
func (db *DB) CancelReservation(ctx context.Context, id string, from models.Status, c *models.Cancellation) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := db.swapStatus(ctx, tx, id, from, models.StatusCancelled); err != nil {
		return err
	}

	c.CreatedAt = time.Now()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO cancellations (id, reservation_id, reason, cancelled_by, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.ReservationID, c.Reason, c.CancelledBy, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert cancellation: %w", err)
	}

	return tx.Commit()
}

// GetCancellation loads the cancellation record of a reservation.
func (db *DB) GetCancellation(ctx context.Context, reservationID string) (*models.Cancellation, error) {
	var c models.Cancellation
	err := db.QueryRowContext(ctx, `
		SELECT id, reservation_id, reason, cancelled_by, created_at
		FROM cancellations WHERE reservation_id = ?`, reservationID,
	).Scan(&c.ID, &c.ReservationID, &c.Reason, &c.CancelledBy, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (db *DB) swapStatus(ctx context.Context, tx *sql.Tx, id string, from, to models.Status) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE reservations
		SET status = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND status = ?`,
		to, time.Now(), id, from,
	)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 1 {
		return nil
	}

	// Lost the race or the row is gone; report which.
	var current models.Status
	err = tx.QueryRowContext(ctx, `SELECT status FROM reservations WHERE id = ?`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}
	return domain.Conflictf("cannot move reservation from %s to %s: reservation is %s", from, to, current)
}

func (db *DB) listReservations(ctx context.Context, query string, args ...interface{}) ([]models.Reservation, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reservations []models.Reservation
	for rows.Next() {
		var r models.Reservation
		if err := rows.Scan(
			&r.ID, &r.BusinessID, &r.CustomerID, &r.StartTime, &r.EndTime,
			&r.NumberOfPeople, &r.Status, &r.Active, &r.CreatedAt, &r.UpdatedAt, &r.Version,
		); err != nil {
			return nil, err
		}
		reservations = append(reservations, r)
	}
	return reservations, rows.Err()
}

func scanReservation(row *sql.Row) (*models.Reservation, error) {
	var r models.Reservation
	err := row.Scan(
		&r.ID, &r.BusinessID, &r.CustomerID, &r.StartTime, &r.EndTime,
		&r.NumberOfPeople, &r.Status, &r.Active, &r.CreatedAt, &r.UpdatedAt, &r.Version,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}
