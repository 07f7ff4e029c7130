package schedule

import (
	"context"
	"fmt"
	"time"

	"reservio/internal/models"
)

// Slot is one bookable interval of a business day.
type Slot struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Available bool      `json:"available"`
}

// BookingChecker reports whether an interval is already taken.
type BookingChecker interface {
	IsSlotBooked(ctx context.Context, businessID string, start, end time.Time) (bool, error)
}

// Generator produces the slot grid for a business day from its weekly
// schedule and existing reservations.
type Generator struct {
	checker BookingChecker
	now     func() time.Time
}

// NewGenerator creates a slot generator.
func NewGenerator(checker BookingChecker) *Generator {
	return &Generator{checker: checker, now: time.Now}
}

// GenerateSlots returns all slots of slotMinutes length for date. A nil
// result means the business is closed that day. Past slots are marked
// unavailable.
func (g *Generator) GenerateSlots(ctx context.Context, businessID string, week models.WeeklySchedule, date time.Time, slotMinutes int) ([]Slot, error) {
	day, ok := week.ForWeekday(date.Weekday())
	if !ok || day.IsClosed {
		return nil, nil
	}
	if slotMinutes <= 0 {
		slotMinutes = 30
	}

	openMin, err := models.MinuteOfDay(day.OpenTime)
	if err != nil {
		return nil, fmt.Errorf("parse open time: %w", err)
	}
	closeMin, err := models.MinuteOfDay(day.CloseTime)
	if err != nil {
		return nil, fmt.Errorf("parse close time: %w", err)
	}

	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	open := dayStart.Add(time.Duration(openMin) * time.Minute)
	close := dayStart.Add(time.Duration(closeMin) * time.Minute)
	step := time.Duration(slotMinutes) * time.Minute

	var slots []Slot
	for cursor := open; !cursor.Add(step).After(close); cursor = cursor.Add(step) {
		slotStart := cursor
		slotEnd := cursor.Add(step)

		booked := false
		if g.checker != nil {
			booked, err = g.checker.IsSlotBooked(ctx, businessID, slotStart, slotEnd)
			if err != nil {
				return nil, fmt.Errorf("check slot: %w", err)
			}
		}

		isPast := slotStart.Before(g.now())

		slots = append(slots, Slot{
			StartTime: slotStart,
			EndTime:   slotEnd,
			Available: !booked && !isPast,
		})
	}
	return slots, nil
}

// AvailableSlots filters slots down to the bookable ones.
func AvailableSlots(slots []Slot) []Slot {
	var available []Slot
	for _, s := range slots {
		if s.Available {
			available = append(available, s)
		}
	}
	return available
}
