package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Role is the capability claim carried by an authenticated actor.
type Role string

const (
	RoleCustomer      Role = "CUSTOMER"
	RoleBusinessOwner Role = "BUSINESS_OWNER"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleBusinessOwner
}

// Actor is the authenticated caller as resolved by the upstream auth layer.
type Actor struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
}

// User is a registered account.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Role      Role      `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// BusinessCategory groups businesses for discovery.
type BusinessCategory struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Active   bool   `json:"active"`
}

// Business is a bookable venue. It is owned by exactly one user and carries
// an active flag instead of ever being deleted.
type Business struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Address     string    `json:"address"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email"`
	OwnerID     string    `json:"owner_id"`
	CategoryID  string    `json:"category_id"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DaySchedule holds operating hours for one weekday. OpenTime and CloseTime
// are "HH:MM" strings, present iff the day is open.
type DaySchedule struct {
	ID         string `json:"id"`
	BusinessID string `json:"business_id"`
	Weekday    int    `json:"weekday"` // 0=Sunday .. 6=Saturday
	IsClosed   bool   `json:"is_closed"`
	OpenTime   string `json:"open_time,omitempty"`
	CloseTime  string `json:"close_time,omitempty"`
}

// WeeklySchedule is the full set of operating hours for a business:
// exactly one DaySchedule per weekday.
type WeeklySchedule []DaySchedule

// ForWeekday returns the schedule entry for w, if present.
func (ws WeeklySchedule) ForWeekday(w time.Weekday) (DaySchedule, bool) {
	for _, d := range ws {
		if d.Weekday == int(w) {
			return d, true
		}
	}
	return DaySchedule{}, false
}

// Validate checks the weekly-schedule invariant: exactly 7 entries, one per
// weekday, and open days carry a valid open < close pair.
func (ws WeeklySchedule) Validate() error {
	if len(ws) != 7 {
		return fmt.Errorf("weekly schedule must have exactly 7 days, got %d", len(ws))
	}
	seen := make(map[int]bool, 7)
	for _, d := range ws {
		if d.Weekday < 0 || d.Weekday > 6 {
			return fmt.Errorf("invalid weekday %d", d.Weekday)
		}
		if seen[d.Weekday] {
			return fmt.Errorf("duplicate entry for weekday %d", d.Weekday)
		}
		seen[d.Weekday] = true

		if d.IsClosed {
			continue
		}
		open, err := MinuteOfDay(d.OpenTime)
		if err != nil {
			return fmt.Errorf("weekday %d open time: %w", d.Weekday, err)
		}
		close, err := MinuteOfDay(d.CloseTime)
		if err != nil {
			return fmt.Errorf("weekday %d close time: %w", d.Weekday, err)
		}
		if close <= open {
			return fmt.Errorf("weekday %d: close time must be after open time", d.Weekday)
		}
	}
	return nil
}

// MinuteOfDay parses an "HH:MM" string into minutes since midnight.
func MinuteOfDay(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("time %q out of range", s)
	}
	return hour*60 + minute, nil
}

// ClosedWeek returns a schedule with all seven days closed, the state a
// business starts in until the owner publishes hours.
func ClosedWeek(businessID string) WeeklySchedule {
	week := make(WeeklySchedule, 0, 7)
	for wd := 0; wd < 7; wd++ {
		week = append(week, DaySchedule{
			BusinessID: businessID,
			Weekday:    wd,
			IsClosed:   true,
		})
	}
	return week
}
