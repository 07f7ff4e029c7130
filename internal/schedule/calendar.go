// Package schedule implements the availability calendar: deciding whether a
// proposed interval falls inside a business's operating hours, and listing
// the bookable slots of a day.
package schedule

import (
	"time"

	"reservio/internal/domain"
	"reservio/internal/models"
)

// WithinHours checks the interval [start, end) against the weekly schedule.
// The interval must not cross midnight. A reservation ending exactly at
// closing time is allowed.
func WithinHours(week models.WeeklySchedule, start, end time.Time) error {
	if !models.SameCalendarDay(start, end) {
		return domain.Conflictf("reservation must start and end on the same day")
	}

	day, ok := week.ForWeekday(start.Weekday())
	if !ok || day.IsClosed || day.OpenTime == "" || day.CloseTime == "" {
		return domain.Conflictf("business is closed on %s", start.Weekday())
	}

	openMin, err := models.MinuteOfDay(day.OpenTime)
	if err != nil {
		return domain.Conflictf("business has invalid open time for %s", start.Weekday())
	}
	closeMin, err := models.MinuteOfDay(day.CloseTime)
	if err != nil {
		return domain.Conflictf("business has invalid close time for %s", start.Weekday())
	}

	startMin := start.Hour()*60 + start.Minute()
	endMin := end.Hour()*60 + end.Minute()
	// Round a sub-minute tail up so an end a few seconds past closing does
	// not slip through the minute-of-day comparison.
	if end.Second() > 0 || end.Nanosecond() > 0 {
		endMin++
	}
	if startMin < openMin || endMin > closeMin {
		return domain.Conflictf("reservation is outside business hours (%s-%s)", day.OpenTime, day.CloseTime)
	}
	return nil
}
