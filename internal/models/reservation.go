package models

import "time"

// Status is the lifecycle state of a reservation.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// statusTransitions holds the legal lifecycle transitions. Cancellation is
// legal from pending or confirmed only; completion requires a prior
// confirmation.
var statusTransitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCancelled, StatusCompleted},
}

// Terminal reports whether no further transitions are permitted from s.
func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// CanTransition reports whether moving from s to next is legal.
func (s Status) CanTransition(next Status) bool {
	for _, t := range statusTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Reservation represents a customer booking at a business. Reservations are
// never deleted; cancellation and completion are status transitions.
type Reservation struct {
	ID             string    `json:"id"`
	BusinessID     string    `json:"business_id"`
	CustomerID     string    `json:"customer_id"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	NumberOfPeople int       `json:"number_of_people"`
	Status         Status    `json:"status"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	Version        int64     `json:"version"`
}

// Blocking reports whether the reservation still occupies its slot.
// Cancelled and completed reservations never block new bookings.
func (r *Reservation) Blocking() bool {
	return !r.Status.Terminal()
}

// OverlapsWith checks the reservation interval against [start, end) using
// half-open semantics: touching endpoints do not conflict.
func (r *Reservation) OverlapsWith(start, end time.Time) bool {
	return r.StartTime.Before(end) && start.Before(r.EndTime)
}

// SameCalendarDay reports whether a and b fall on the same calendar date
// in their respective locations. Callers normalize both to the deployment
// zone first.
func SameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DayBounds returns the half-open [startOfDay, nextDay) interval containing
// t in the given location.
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, start.Add(24 * time.Hour)
}

// Cancellation records why and by whom a reservation was cancelled.
// Written exactly once per cancelled reservation, immutably.
type Cancellation struct {
	ID            string    `json:"id"`
	ReservationID string    `json:"reservation_id"`
	Reason        string    `json:"reason"`
	CancelledBy   string    `json:"cancelled_by"`
	CreatedAt     time.Time `json:"created_at"`
}
