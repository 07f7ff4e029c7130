package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"reservio/internal/access"
	"reservio/internal/audit"
	"reservio/internal/domain"
	"reservio/internal/events"
	"reservio/internal/metrics"
	"reservio/internal/models"
)

// ReservationStore provides the transactional reservation operations.
type ReservationStore interface {
	CreateReservation(ctx context.Context, r *models.Reservation, week models.WeeklySchedule) error
	GetReservation(ctx context.Context, id string) (*models.Reservation, error)
	ListReservationsByBusiness(ctx context.Context, businessID string) ([]models.Reservation, error)
	ListReservationsByCustomer(ctx context.Context, customerID string) ([]models.Reservation, error)
	TransitionStatus(ctx context.Context, id string, from, to models.Status) error
	CancelReservation(ctx context.Context, id string, from models.Status, c *models.Cancellation) error
}

// BusinessSource resolves businesses for authorization and booking.
type BusinessSource interface {
	GetBusiness(ctx context.Context, id string) (*models.Business, error)
	GetBusinessByOwner(ctx context.Context, ownerID string) (*models.Business, error)
}

// ScheduleSource resolves the weekly schedule of a business.
type ScheduleSource interface {
	WeeklySchedule(ctx context.Context, businessID string) (models.WeeklySchedule, error)
}

// CreateReservationInput is the booking request after upstream validation.
type CreateReservationInput struct {
	BusinessID     string    `json:"business_id"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	NumberOfPeople int       `json:"number_of_people"`
}

// ReservationService is the booking orchestrator and lifecycle manager: it
// composes the scheduling gates, commits transitions, and dispatches
// best-effort notifications after commit.
type ReservationService struct {
	store      ReservationStore
	businesses BusinessSource
	schedules  ScheduleSource
	bus        *events.EventBus
	recorder   *audit.Recorder
	loc        *time.Location
	logger     zerolog.Logger
	now        func() time.Time
}

// NewReservationService creates the service.
func NewReservationService(
	store ReservationStore,
	businesses BusinessSource,
	schedules ScheduleSource,
	bus *events.EventBus,
	recorder *audit.Recorder,
	loc *time.Location,
	logger *zerolog.Logger,
) *ReservationService {
	if loc == nil {
		loc = time.Local
	}
	return &ReservationService{
		store:      store,
		businesses: businesses,
		schedules:  schedules,
		bus:        bus,
		recorder:   recorder,
		loc:        loc,
		logger:     logger.With().Str("component", "reservations").Logger(),
		now:        time.Now,
	}
}

// Create books a new reservation. Gate order: customer capability, active
// business, then daily-uniqueness, overlap, operating hours and the insert
// inside one store transaction.
func (s *ReservationService) Create(ctx context.Context, actor models.Actor, input CreateReservationInput) (*models.Reservation, error) {
	if err := access.RequireCustomer(actor); err != nil {
		return nil, err
	}
	if err := s.validateInterval(input); err != nil {
		metrics.IncConflict("invalid_interval")
		return nil, err
	}

	business, err := s.businesses.GetBusiness(ctx, input.BusinessID)
	if err != nil {
		return nil, err
	}

	week, err := s.schedules.WeeklySchedule(ctx, business.ID)
	if err != nil {
		return nil, fmt.Errorf("load schedule: %w", err)
	}

	r := &models.Reservation{
		ID:             uuid.New().String(),
		BusinessID:     business.ID,
		CustomerID:     actor.UserID,
		StartTime:      input.StartTime,
		EndTime:        input.EndTime,
		NumberOfPeople: input.NumberOfPeople,
	}

	if err := s.store.CreateReservation(ctx, r, week); err != nil {
		if domain.IsConflict(err) {
			metrics.IncConflict("create")
		}
		return nil, err
	}

	metrics.IncTransition(audit.ActionCreated)
	s.recorder.Record(ctx, business.ID, r.ID, actor.UserID, audit.ActionCreated,
		fmt.Sprintf("%s - %s, %d people", r.StartTime.Format(time.RFC3339), r.EndTime.Format(time.RFC3339), r.NumberOfPeople))
	s.publish(events.TypeReservationCreated, r, business, "")

	s.logger.Info().
		Str("reservation_id", r.ID).
		Str("business_id", business.ID).
		Str("customer_id", actor.UserID).
		Time("start", r.StartTime).
		Msg("reservation created")

	return r, nil
}

// Confirm moves a pending reservation to confirmed. Owner-only.
func (s *ReservationService) Confirm(ctx context.Context, actor models.Actor, reservationID string) (*models.Reservation, error) {
	r, business, err := s.load(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if err := access.RequireBusinessOwner(actor, business); err != nil {
		return nil, err
	}
	if !r.Status.CanTransition(models.StatusConfirmed) {
		metrics.IncConflict("confirm")
		return nil, domain.Conflictf("cannot confirm reservation in status %s", r.Status)
	}

	if err := s.store.TransitionStatus(ctx, r.ID, r.Status, models.StatusConfirmed); err != nil {
		if domain.IsConflict(err) {
			metrics.IncConflict("confirm")
		}
		return nil, err
	}
	r.Status = models.StatusConfirmed
	r.Version++

	metrics.IncTransition(audit.ActionConfirmed)
	s.recorder.Record(ctx, business.ID, r.ID, actor.UserID, audit.ActionConfirmed, "")
	s.publish(events.TypeReservationConfirmed, r, business, "")

	s.logger.Info().Str("reservation_id", r.ID).Msg("reservation confirmed")
	return r, nil
}

// Cancel moves a pending or confirmed reservation to cancelled and writes
// the cancellation record. Permitted for the customer or the owner.
func (s *ReservationService) Cancel(ctx context.Context, actor models.Actor, reservationID, reason string) error {
	r, business, err := s.load(ctx, reservationID)
	if err != nil {
		return err
	}
	if err := access.RequireCancelRights(actor, r, business); err != nil {
		return err
	}
	if !r.Status.CanTransition(models.StatusCancelled) {
		metrics.IncConflict("cancel")
		return domain.Conflictf("cannot cancel reservation in status %s", r.Status)
	}

	c := &models.Cancellation{
		ID:            uuid.New().String(),
		ReservationID: r.ID,
		Reason:        reason,
		CancelledBy:   actor.UserID,
	}
	if err := s.store.CancelReservation(ctx, r.ID, r.Status, c); err != nil {
		if domain.IsConflict(err) {
			metrics.IncConflict("cancel")
		}
		return err
	}

	metrics.IncTransition(audit.ActionCancelled)
	s.recorder.Record(ctx, business.ID, r.ID, actor.UserID, audit.ActionCancelled, reason)
	s.publish(events.TypeReservationCancelled, r, business, reason)

	s.logger.Info().
		Str("reservation_id", r.ID).
		Str("cancelled_by", actor.UserID).
		Msg("reservation cancelled")
	return nil
}

// Complete marks a confirmed reservation as completed once its end time has
// passed. Owner-only.
func (s *ReservationService) Complete(ctx context.Context, actor models.Actor, reservationID string) (*models.Reservation, error) {
	r, business, err := s.load(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if err := access.RequireBusinessOwner(actor, business); err != nil {
		return nil, err
	}
	if !r.Status.CanTransition(models.StatusCompleted) {
		metrics.IncConflict("complete")
		return nil, domain.Conflictf("cannot complete reservation in status %s", r.Status)
	}
	if s.now().Before(r.EndTime) {
		metrics.IncConflict("complete")
		return nil, domain.Conflictf("reservation has not ended yet")
	}

	if err := s.store.TransitionStatus(ctx, r.ID, r.Status, models.StatusCompleted); err != nil {
		if domain.IsConflict(err) {
			metrics.IncConflict("complete")
		}
		return nil, err
	}
	r.Status = models.StatusCompleted
	r.Version++

	metrics.IncTransition(audit.ActionCompleted)
	s.recorder.Record(ctx, business.ID, r.ID, actor.UserID, audit.ActionCompleted, "")
	s.publish(events.TypeReservationCompleted, r, business, "")

	s.logger.Info().Str("reservation_id", r.ID).Msg("reservation completed")
	return r, nil
}

// List returns the reservations visible to the actor: owners see their
// business's reservations, customers see their own.
func (s *ReservationService) List(ctx context.Context, actor models.Actor) ([]models.Reservation, error) {
	if actor.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	if actor.Role == models.RoleBusinessOwner {
		business, err := s.businesses.GetBusinessByOwner(ctx, actor.UserID)
		if err != nil {
			return nil, err
		}
		return s.store.ListReservationsByBusiness(ctx, business.ID)
	}
	return s.store.ListReservationsByCustomer(ctx, actor.UserID)
}

func (s *ReservationService) load(ctx context.Context, reservationID string) (*models.Reservation, *models.Business, error) {
	r, err := s.store.GetReservation(ctx, reservationID)
	if err != nil {
		return nil, nil, err
	}
	business, err := s.businesses.GetBusiness(ctx, r.BusinessID)
	if err != nil {
		return nil, nil, err
	}
	return r, business, nil
}

// validateInterval re-verifies the interval invariants the upstream
// validation layer already enforced.
func (s *ReservationService) validateInterval(input CreateReservationInput) error {
	if !input.StartTime.Before(input.EndTime) {
		return domain.Conflictf("start time must be before end time")
	}
	if !models.SameCalendarDay(input.StartTime.In(s.loc), input.EndTime.In(s.loc)) {
		return domain.Conflictf("reservation must start and end on the same day")
	}
	if !input.EndTime.After(s.now()) {
		return domain.Conflictf("reservation must end in the future")
	}
	if input.NumberOfPeople < 1 || input.NumberOfPeople > 8 {
		return domain.Conflictf("number of people must be between 1 and 8")
	}
	return nil
}

// publish emits a lifecycle event; only called after the transaction that
// produced the state committed.
func (s *ReservationService) publish(eventType string, r *models.Reservation, b *models.Business, reason string) {
	if s.bus == nil {
		return
	}
	err := s.bus.PublishReservation(eventType, events.ReservationEvent{
		ReservationID: r.ID,
		BusinessID:    b.ID,
		BusinessName:  b.Name,
		CustomerID:    r.CustomerID,
		StartTime:     r.StartTime,
		EndTime:       r.EndTime,
		Status:        string(r.Status),
		Reason:        reason,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("type", eventType).Msg("failed to publish event")
	}
}
