package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"reservio/internal/access"
	"reservio/internal/cache"
	"reservio/internal/domain"
	"reservio/internal/models"
)

// BusinessStore persists businesses, categories and operating hours.
type BusinessStore interface {
	CreateBusiness(ctx context.Context, b *models.Business) error
	GetBusiness(ctx context.Context, id string) (*models.Business, error)
	GetBusinessByOwner(ctx context.Context, ownerID string) (*models.Business, error)
	ListBusinesses(ctx context.Context, categoryID string) ([]models.Business, error)
	DeactivateBusiness(ctx context.Context, id string) error
	GetCategory(ctx context.Context, id string) (*models.BusinessCategory, error)
	ListCategories(ctx context.Context) ([]models.BusinessCategory, error)
	GetWeeklySchedule(ctx context.Context, businessID string) (models.WeeklySchedule, error)
	ReplaceWeeklySchedule(ctx context.Context, businessID string, week models.WeeklySchedule) error
}

// CreateBusinessInput carries the registration form of a new business.
type CreateBusinessInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Address     string `json:"address"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	CategoryID  string `json:"category_id"`
}

// BusinessService manages businesses, categories and operating hours. It is
// the ScheduleSource for the booking path, with a read-through cache in
// front of the hours table.
type BusinessService struct {
	store  BusinessStore
	cache  *cache.ScheduleCache
	logger zerolog.Logger
}

// NewBusinessService creates the service. cache may be nil.
func NewBusinessService(store BusinessStore, scheduleCache *cache.ScheduleCache, logger *zerolog.Logger) *BusinessService {
	return &BusinessService{
		store:  store,
		cache:  scheduleCache,
		logger: logger.With().Str("component", "businesses").Logger(),
	}
}

// Create registers a business for the actor. One business per owner; the
// business starts with all days closed until hours are published.
func (s *BusinessService) Create(ctx context.Context, actor models.Actor, input CreateBusinessInput) (*models.Business, error) {
	if actor.UserID == "" || actor.Role != models.RoleBusinessOwner {
		return nil, domain.ErrUnauthorized
	}

	if _, err := s.store.GetBusinessByOwner(ctx, actor.UserID); err == nil {
		return nil, domain.Conflictf("owner already has a business")
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("check existing business: %w", err)
	}

	if input.CategoryID != "" {
		if _, err := s.store.GetCategory(ctx, input.CategoryID); err != nil {
			return nil, fmt.Errorf("resolve category: %w", err)
		}
	}

	b := &models.Business{
		ID:          uuid.New().String(),
		Name:        input.Name,
		Description: input.Description,
		Address:     input.Address,
		Phone:       input.Phone,
		Email:       input.Email,
		OwnerID:     actor.UserID,
		CategoryID:  input.CategoryID,
		Active:      true,
	}
	if err := s.store.CreateBusiness(ctx, b); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("business_id", b.ID).
		Str("owner_id", actor.UserID).
		Msg("business created")
	return b, nil
}

// Get returns an active business by id.
func (s *BusinessService) Get(ctx context.Context, id string) (*models.Business, error) {
	return s.store.GetBusiness(ctx, id)
}

// List returns active businesses, optionally filtered by category.
func (s *BusinessService) List(ctx context.Context, categoryID string) ([]models.Business, error) {
	return s.store.ListBusinesses(ctx, categoryID)
}

// Categories returns the active business categories.
func (s *BusinessService) Categories(ctx context.Context) ([]models.BusinessCategory, error) {
	return s.store.ListCategories(ctx)
}

// Deactivate soft-deletes the actor's business.
func (s *BusinessService) Deactivate(ctx context.Context, actor models.Actor, businessID string) error {
	b, err := s.store.GetBusiness(ctx, businessID)
	if err != nil {
		return err
	}
	if err := access.RequireBusinessOwner(actor, b); err != nil {
		return err
	}
	if err := s.store.DeactivateBusiness(ctx, businessID); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, businessID)

	s.logger.Info().Str("business_id", businessID).Msg("business deactivated")
	return nil
}

// WeeklySchedule returns the operating hours of a business, read through the
// cache.
func (s *BusinessService) WeeklySchedule(ctx context.Context, businessID string) (models.WeeklySchedule, error) {
	if week, ok := s.cache.Get(ctx, businessID); ok {
		return week, nil
	}
	week, err := s.store.GetWeeklySchedule(ctx, businessID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, businessID, week)
	return week, nil
}

// UpdateHours replaces the weekly schedule of the actor's business. The new
// schedule must cover all seven weekdays exactly once.
func (s *BusinessService) UpdateHours(ctx context.Context, actor models.Actor, businessID string, week models.WeeklySchedule) (models.WeeklySchedule, error) {
	b, err := s.store.GetBusiness(ctx, businessID)
	if err != nil {
		return nil, err
	}
	if err := access.RequireBusinessOwner(actor, b); err != nil {
		return nil, err
	}
	if err := week.Validate(); err != nil {
		return nil, domain.Conflictf("invalid schedule: %v", err)
	}
	for i := range week {
		week[i].BusinessID = businessID
	}

	if err := s.store.ReplaceWeeklySchedule(ctx, businessID, week); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, businessID)

	s.logger.Info().Str("business_id", businessID).Msg("operating hours updated")
	return s.store.GetWeeklySchedule(ctx, businessID)
}
