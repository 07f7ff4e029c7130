package service

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"reservio/internal/domain"
	"reservio/internal/events"
	"reservio/internal/models"
)

type mockReservationStore struct {
	mock.Mock
}

func (m *mockReservationStore) CreateReservation(ctx context.Context, r *models.Reservation, week models.WeeklySchedule) error {
	args := m.Called(ctx, r, week)
	return args.Error(0)
}

func (m *mockReservationStore) GetReservation(ctx context.Context, id string) (*models.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}

func (m *mockReservationStore) ListReservationsByBusiness(ctx context.Context, businessID string) ([]models.Reservation, error) {
	args := m.Called(ctx, businessID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Reservation), args.Error(1)
}

func (m *mockReservationStore) ListReservationsByCustomer(ctx context.Context, customerID string) ([]models.Reservation, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Reservation), args.Error(1)
}

func (m *mockReservationStore) TransitionStatus(ctx context.Context, id string, from, to models.Status) error {
	args := m.Called(ctx, id, from, to)
	return args.Error(0)
}

func (m *mockReservationStore) CancelReservation(ctx context.Context, id string, from models.Status, c *models.Cancellation) error {
	args := m.Called(ctx, id, from, c)
	return args.Error(0)
}

type mockBusinessSource struct {
	mock.Mock
}

func (m *mockBusinessSource) GetBusiness(ctx context.Context, id string) (*models.Business, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Business), args.Error(1)
}

func (m *mockBusinessSource) GetBusinessByOwner(ctx context.Context, ownerID string) (*models.Business, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Business), args.Error(1)
}

type mockScheduleSource struct {
	mock.Mock
}

func (m *mockScheduleSource) WeeklySchedule(ctx context.Context, businessID string) (models.WeeklySchedule, error) {
	args := m.Called(ctx, businessID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(models.WeeklySchedule), args.Error(1)
}

type fixture struct {
	store      *mockReservationStore
	businesses *mockBusinessSource
	schedules  *mockScheduleSource
	bus        *events.EventBus
	svc        *ReservationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zerolog.New(io.Discard)
	f := &fixture{
		store:      &mockReservationStore{},
		businesses: &mockBusinessSource{},
		schedules:  &mockScheduleSource{},
		bus:        events.NewEventBus(),
	}
	f.svc = NewReservationService(f.store, f.businesses, f.schedules, f.bus, nil, time.UTC, &logger)
	return f
}

// March 10 2026 is a Tuesday.
func slot(hour int) (time.Time, time.Time) {
	start := time.Date(2026, 3, 10, hour, 0, 0, 0, time.UTC)
	return start, start.Add(time.Hour)
}

func openAllWeek() models.WeeklySchedule {
	week := make(models.WeeklySchedule, 0, 7)
	for wd := 0; wd < 7; wd++ {
		week = append(week, models.DaySchedule{Weekday: wd, OpenTime: "00:00", CloseTime: "23:59"})
	}
	return week
}

var (
	customer = models.Actor{UserID: "cust-1", Role: models.RoleCustomer}
	owner    = models.Actor{UserID: "owner-1", Role: models.RoleBusinessOwner}
	business = &models.Business{ID: "biz-1", Name: "Trattoria Roma", OwnerID: "owner-1", Active: true}
)

func TestReservationService_Create(t *testing.T) {
	f := newFixture(t)
	f.svc.now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	start, end := slot(10)

	f.businesses.On("GetBusiness", mock.Anything, "biz-1").Return(business, nil)
	f.schedules.On("WeeklySchedule", mock.Anything, "biz-1").Return(openAllWeek(), nil)
	f.store.On("CreateReservation", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	var published []events.Event
	f.bus.Subscribe(events.TypeReservationCreated, func(e events.Event) error {
		published = append(published, e)
		return nil
	})

	r, err := f.svc.Create(context.Background(), customer, CreateReservationInput{
		BusinessID:     "biz-1",
		StartTime:      start,
		EndTime:        end,
		NumberOfPeople: 2,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, "cust-1", r.CustomerID)
	assert.Len(t, published, 1)
	f.store.AssertExpectations(t)
}

func TestReservationService_Create_RequiresCustomerRole(t *testing.T) {
	f := newFixture(t)
	start, end := slot(10)

	_, err := f.svc.Create(context.Background(), owner, CreateReservationInput{
		BusinessID: "biz-1", StartTime: start, EndTime: end, NumberOfPeople: 2,
	})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	f.store.AssertNotCalled(t, "CreateReservation", mock.Anything, mock.Anything, mock.Anything)
}

func TestReservationService_Create_InvalidInterval(t *testing.T) {
	f := newFixture(t)
	f.svc.now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	start, end := slot(10)

	tests := []struct {
		name    string
		input   CreateReservationInput
		wantErr string
	}{
		{
			name:    "start after end",
			input:   CreateReservationInput{BusinessID: "biz-1", StartTime: end, EndTime: start, NumberOfPeople: 2},
			wantErr: "start time must be before end time",
		},
		{
			name:    "crosses midnight",
			input:   CreateReservationInput{BusinessID: "biz-1", StartTime: start, EndTime: end.AddDate(0, 0, 1), NumberOfPeople: 2},
			wantErr: "same day",
		},
		{
			name:    "zero people",
			input:   CreateReservationInput{BusinessID: "biz-1", StartTime: start, EndTime: end, NumberOfPeople: 0},
			wantErr: "number of people",
		},
		{
			name:    "too many people",
			input:   CreateReservationInput{BusinessID: "biz-1", StartTime: start, EndTime: end, NumberOfPeople: 9},
			wantErr: "number of people",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), customer, tt.input)
			assert.True(t, domain.IsConflict(err))
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestReservationService_Create_PastEnd(t *testing.T) {
	f := newFixture(t)
	f.svc.now = func() time.Time { return time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC) }
	start, end := slot(10)

	_, err := f.svc.Create(context.Background(), customer, CreateReservationInput{
		BusinessID: "biz-1", StartTime: start, EndTime: end, NumberOfPeople: 2,
	})
	assert.True(t, domain.IsConflict(err))
	assert.ErrorContains(t, err, "end in the future")
}

func TestReservationService_Create_UnknownBusiness(t *testing.T) {
	f := newFixture(t)
	f.svc.now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	start, end := slot(10)

	f.businesses.On("GetBusiness", mock.Anything, "missing").Return(nil, domain.ErrNotFound)

	_, err := f.svc.Create(context.Background(), customer, CreateReservationInput{
		BusinessID: "missing", StartTime: start, EndTime: end, NumberOfPeople: 2,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReservationService_Confirm(t *testing.T) {
	f := newFixture(t)
	start, end := slot(10)
	pending := &models.Reservation{
		ID: "res-1", BusinessID: "biz-1", CustomerID: "cust-1",
		StartTime: start, EndTime: end, Status: models.StatusPending, Version: 1,
	}

	f.store.On("GetReservation", mock.Anything, "res-1").Return(pending, nil)
	f.businesses.On("GetBusiness", mock.Anything, "biz-1").Return(business, nil)
	f.store.On("TransitionStatus", mock.Anything, "res-1", models.StatusPending, models.StatusConfirmed).Return(nil)

	r, err := f.svc.Confirm(context.Background(), owner, "res-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, r.Status)
	assert.EqualValues(t, 2, r.Version)
}

func TestReservationService_Confirm_NotOwner(t *testing.T) {
	f := newFixture(t)
	start, end := slot(10)
	pending := &models.Reservation{
		ID: "res-1", BusinessID: "biz-1", CustomerID: "cust-1",
		StartTime: start, EndTime: end, Status: models.StatusPending,
	}

	f.store.On("GetReservation", mock.Anything, "res-1").Return(pending, nil)
	f.businesses.On("GetBusiness", mock.Anything, "biz-1").Return(business, nil)

	_, err := f.svc.Confirm(context.Background(), customer, "res-1")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	f.store.AssertNotCalled(t, "TransitionStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReservationService_Confirm_WrongState(t *testing.T) {
	start, end := slot(10)

	for _, status := range []models.Status{models.StatusConfirmed, models.StatusCancelled, models.StatusCompleted} {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture(t)
			r := &models.Reservation{
				ID: "res-1", BusinessID: "biz-1", CustomerID: "cust-1",
				StartTime: start, EndTime: end, Status: status,
			}
			f.store.On("GetReservation", mock.Anything, "res-1").Return(r, nil)
			f.businesses.On("GetBusiness", mock.Anything, "biz-1").Return(business, nil)

			_, err := f.svc.Confirm(context.Background(), owner, "res-1")
			assert.True(t, domain.IsConflict(err))
			assert.ErrorContains(t, err, string(status))
		})
	}
}

func TestReservationService_Cancel_ByCustomerAndOwner(t *testing.T) {
	start, end := slot(10)

	for _, actor := range []models.Actor{customer, owner} {
		t.Run(string(actor.Role), func(t *testing.T) {
			f := newFixture(t)
			r := &models.Reservation{
				ID: "res-1", BusinessID: "biz-1", CustomerID: "cust-1",
				StartTime: start, EndTime: end, Status: models.StatusConfirmed,
			}
			f.store.On("GetReservation", mock.Anything, "res-1").Return(r, nil)
			f.businesses.On("GetBusiness", mock.Anything, "biz-1").Return(business, nil)
			f.store.On("CancelReservation", mock.Anything, "res-1", models.StatusConfirmed,
				mock.MatchedBy(func(c *models.Cancellation) bool {
					return c.ReservationID == "res-1" && c.CancelledBy == actor.UserID
				})).Return(nil)

			assert.NoError(t, f.svc.Cancel(context.Background(), actor, "res-1", "plans changed"))
			f.store.AssertExpectations(t)
		})
	}
}

func TestReservationService_Cancel_Stranger(t *testing.T) {
	f := newFixture(t)
	start, end := slot(10)
	r := &models.Reservation{
		ID: "res-1", BusinessID: "biz-1", CustomerID: "cust-1",
		StartTime: start, EndTime: end, Status: models.StatusPending,
	}
	f.store.On("GetReservation", mock.Anything, "res-1").Return(r, nil)
	f.businesses.On("GetBusiness", mock.Anything, "biz-1").Return(business, nil)

	stranger := models.Actor{UserID: "cust-2", Role: models.RoleCustomer}
	err := f.svc.Cancel(context.Background(), stranger, "res-1", "")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestReservationService_Cancel_Terminal(t *testing.T) {
	f := newFixture(t)
	start, end := slot(10)
	r := &models.Reservation{
		ID: "res-1", BusinessID: "biz-1", CustomerID: "cust-1",
		StartTime: start, EndTime: end, Status: models.StatusCompleted,
	}
	f.store.On("GetReservation", mock.Anything, "res-1").Return(r, nil)
	f.businesses.On("GetBusiness", mock.Anything, "biz-1").Return(business, nil)

	err := f.svc.Cancel(context.Background(), customer, "res-1", "")
	assert.True(t, domain.IsConflict(err))
	assert.ErrorContains(t, err, "completed")
}

func TestReservationService_Complete(t *testing.T) {
	f := newFixture(t)
	start, end := slot(10)
	confirmed := &models.Reservation{
		ID: "res-1", BusinessID: "biz-1", CustomerID: "cust-1",
		StartTime: start, EndTime: end, Status: models.StatusConfirmed, Version: 2,
	}

	f.store.On("GetReservation", mock.Anything, "res-1").Return(confirmed, nil)
	f.businesses.On("GetBusiness", mock.Anything, "biz-1").Return(business, nil)
	f.store.On("TransitionStatus", mock.Anything, "res-1", models.StatusConfirmed, models.StatusCompleted).Return(nil)
	f.svc.now = func() time.Time { return end.Add(time.Minute) }

	r, err := f.svc.Complete(context.Background(), owner, "res-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, r.Status)
}

func TestReservationService_Complete_BeforeEnd(t *testing.T) {
	f := newFixture(t)
	start, end := slot(10)
	confirmed := &models.Reservation{
		ID: "res-1", BusinessID: "biz-1", CustomerID: "cust-1",
		StartTime: start, EndTime: end, Status: models.StatusConfirmed,
	}

	f.store.On("GetReservation", mock.Anything, "res-1").Return(confirmed, nil)
	f.businesses.On("GetBusiness", mock.Anything, "biz-1").Return(business, nil)
	f.svc.now = func() time.Time { return end.Add(-time.Minute) }

	_, err := f.svc.Complete(context.Background(), owner, "res-1")
	assert.True(t, domain.IsConflict(err))
	assert.ErrorContains(t, err, "not ended yet")
	f.store.AssertNotCalled(t, "TransitionStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReservationService_Complete_Pending(t *testing.T) {
	f := newFixture(t)
	start, end := slot(10)
	pending := &models.Reservation{
		ID: "res-1", BusinessID: "biz-1", CustomerID: "cust-1",
		StartTime: start, EndTime: end, Status: models.StatusPending,
	}

	f.store.On("GetReservation", mock.Anything, "res-1").Return(pending, nil)
	f.businesses.On("GetBusiness", mock.Anything, "biz-1").Return(business, nil)
	f.svc.now = func() time.Time { return end.Add(time.Hour) }

	_, err := f.svc.Complete(context.Background(), owner, "res-1")
	assert.True(t, domain.IsConflict(err))
	assert.ErrorContains(t, err, "pending")
}

func TestReservationService_List(t *testing.T) {
	f := newFixture(t)

	f.businesses.On("GetBusinessByOwner", mock.Anything, "owner-1").Return(business, nil)
	f.store.On("ListReservationsByBusiness", mock.Anything, "biz-1").Return([]models.Reservation{{ID: "r1"}, {ID: "r2"}}, nil)
	f.store.On("ListReservationsByCustomer", mock.Anything, "cust-1").Return([]models.Reservation{{ID: "r1"}}, nil)

	byOwner, err := f.svc.List(context.Background(), owner)
	require.NoError(t, err)
	assert.Len(t, byOwner, 2)

	byCustomer, err := f.svc.List(context.Background(), customer)
	require.NoError(t, err)
	assert.Len(t, byCustomer, 1)

	_, err = f.svc.List(context.Background(), models.Actor{})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
