package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func openWeek() WeeklySchedule {
	week := make(WeeklySchedule, 0, 7)
	for wd := 0; wd < 7; wd++ {
		week = append(week, DaySchedule{Weekday: wd, OpenTime: "09:00", CloseTime: "17:00"})
	}
	return week
}

func TestWeeklySchedule_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(WeeklySchedule) WeeklySchedule
		wantErr string
	}{
		{
			name:   "valid open week",
			mutate: func(w WeeklySchedule) WeeklySchedule { return w },
		},
		{
			name: "closed day needs no hours",
			mutate: func(w WeeklySchedule) WeeklySchedule {
				w[0] = DaySchedule{Weekday: 0, IsClosed: true}
				return w
			},
		},
		{
			name:    "missing day",
			mutate:  func(w WeeklySchedule) WeeklySchedule { return w[:6] },
			wantErr: "exactly 7 days",
		},
		{
			name: "duplicate weekday",
			mutate: func(w WeeklySchedule) WeeklySchedule {
				w[6].Weekday = 0
				return w
			},
			wantErr: "duplicate",
		},
		{
			name: "weekday out of range",
			mutate: func(w WeeklySchedule) WeeklySchedule {
				w[3].Weekday = 7
				return w
			},
			wantErr: "invalid weekday",
		},
		{
			name: "close before open",
			mutate: func(w WeeklySchedule) WeeklySchedule {
				w[2].OpenTime, w[2].CloseTime = "17:00", "09:00"
				return w
			},
			wantErr: "close time must be after open time",
		},
		{
			name: "zero-length day",
			mutate: func(w WeeklySchedule) WeeklySchedule {
				w[2].OpenTime, w[2].CloseTime = "09:00", "09:00"
				return w
			},
			wantErr: "close time must be after open time",
		},
		{
			name: "malformed open time",
			mutate: func(w WeeklySchedule) WeeklySchedule {
				w[1].OpenTime = "9am"
				return w
			},
			wantErr: "open time",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.mutate(openWeek()).Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestWeeklySchedule_ForWeekday(t *testing.T) {
	week := openWeek()
	day, ok := week.ForWeekday(time.Wednesday)
	assert.True(t, ok)
	assert.Equal(t, int(time.Wednesday), day.Weekday)

	_, ok = WeeklySchedule{}.ForWeekday(time.Monday)
	assert.False(t, ok)
}

func TestMinuteOfDay(t *testing.T) {
	tests := []struct {
		input    string
		expected int
		wantErr  bool
	}{
		{"00:00", 0, false},
		{"09:30", 570, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"noon", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := MinuteOfDay(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, got)
			}
		})
	}
}

func TestClosedWeek(t *testing.T) {
	week := ClosedWeek("biz-1")
	assert.NoError(t, week.Validate())
	for _, d := range week {
		assert.True(t, d.IsClosed)
		assert.Equal(t, "biz-1", d.BusinessID)
	}
}
