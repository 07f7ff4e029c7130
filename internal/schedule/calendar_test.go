package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"reservio/internal/domain"
	"reservio/internal/models"
)

// March 10 2026 is a Tuesday.
func tuesday(hour, min int) time.Time {
	return time.Date(2026, 3, 10, hour, min, 0, 0, time.UTC)
}

func businessWeek() models.WeeklySchedule {
	week := make(models.WeeklySchedule, 0, 7)
	for wd := 0; wd < 7; wd++ {
		day := models.DaySchedule{Weekday: wd, OpenTime: "09:00", CloseTime: "17:00"}
		if wd == int(time.Sunday) {
			day = models.DaySchedule{Weekday: wd, IsClosed: true}
		}
		week = append(week, day)
	}
	return week
}

func TestWithinHours(t *testing.T) {
	week := businessWeek()

	tests := []struct {
		name    string
		start   time.Time
		end     time.Time
		wantErr string
	}{
		{"inside hours", tuesday(10, 0), tuesday(11, 0), ""},
		{"exactly the full day", tuesday(9, 0), tuesday(17, 0), ""},
		{"starts at open", tuesday(9, 0), tuesday(10, 0), ""},
		{"ends at close", tuesday(16, 0), tuesday(17, 0), ""},
		{"starts before open", tuesday(8, 0), tuesday(10, 0), "outside business hours"},
		{"ends after close", tuesday(16, 30), tuesday(17, 30), "outside business hours"},
		{"ends seconds after close", tuesday(16, 0), tuesday(17, 0).Add(30 * time.Second), "outside business hours"},
		{"entirely outside", tuesday(18, 0), tuesday(19, 0), "outside business hours"},
		{"crosses midnight", tuesday(23, 0), tuesday(23, 0).Add(2 * time.Hour), "same day"},
		{
			name:    "closed day",
			start:   time.Date(2026, 3, 8, 10, 0, 0, 0, time.UTC), // Sunday
			end:     time.Date(2026, 3, 8, 11, 0, 0, 0, time.UTC),
			wantErr: "closed on Sunday",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := WithinHours(week, tt.start, tt.end)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
				assert.True(t, domain.IsConflict(err))
			}
		})
	}
}

func TestWithinHours_MissingWeekday(t *testing.T) {
	err := WithinHours(models.WeeklySchedule{}, tuesday(10, 0), tuesday(11, 0))
	assert.True(t, domain.IsConflict(err))
	assert.ErrorContains(t, err, "closed")
}
