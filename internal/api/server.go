// Package api exposes the reservation core over HTTP. Authentication runs
// upstream; the gateway forwards the resolved actor in X-User-ID / X-Role
// headers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"reservio/internal/audit"
	"reservio/internal/domain"
	"reservio/internal/models"
	"reservio/internal/schedule"
	"reservio/internal/service"
)

// Reservations is the reservation lifecycle surface the handlers call.
type Reservations interface {
	Create(ctx context.Context, actor models.Actor, input service.CreateReservationInput) (*models.Reservation, error)
	Confirm(ctx context.Context, actor models.Actor, reservationID string) (*models.Reservation, error)
	Cancel(ctx context.Context, actor models.Actor, reservationID, reason string) error
	Complete(ctx context.Context, actor models.Actor, reservationID string) (*models.Reservation, error)
	List(ctx context.Context, actor models.Actor) ([]models.Reservation, error)
}

// Businesses is the business management surface the handlers call.
type Businesses interface {
	Create(ctx context.Context, actor models.Actor, input service.CreateBusinessInput) (*models.Business, error)
	Get(ctx context.Context, id string) (*models.Business, error)
	List(ctx context.Context, categoryID string) ([]models.Business, error)
	Categories(ctx context.Context) ([]models.BusinessCategory, error)
	Deactivate(ctx context.Context, actor models.Actor, businessID string) error
	WeeklySchedule(ctx context.Context, businessID string) (models.WeeklySchedule, error)
	UpdateHours(ctx context.Context, actor models.Actor, businessID string, week models.WeeklySchedule) (models.WeeklySchedule, error)
}

// AuditLog reads the per-business audit trail for reports.
type AuditLog interface {
	List(ctx context.Context, businessID string, from, to time.Time) ([]audit.Entry, error)
}

// Users persists accounts registered through the gateway.
type Users interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// Server wires the HTTP routes to the services.
type Server struct {
	reservations Reservations
	businesses   Businesses
	auditLog     AuditLog
	users        Users
	slots        *schedule.Generator
	logger       zerolog.Logger
}

// NewServer creates the HTTP surface. auditLog and slots may be nil, the
// corresponding routes then return 404.
func NewServer(reservations Reservations, businesses Businesses, auditLog AuditLog, users Users, slots *schedule.Generator, logger *zerolog.Logger) *Server {
	return &Server{
		reservations: reservations,
		businesses:   businesses,
		auditLog:     auditLog,
		users:        users,
		slots:        slots,
		logger:       logger.With().Str("component", "api").Logger(),
	}
}

// Handler returns the routed http.Handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/reservations", s.handleCreateReservation)
	mux.HandleFunc("GET /api/v1/reservations", s.handleListReservations)
	mux.HandleFunc("POST /api/v1/reservations/{id}/confirm", s.handleConfirm)
	mux.HandleFunc("POST /api/v1/reservations/{id}/cancel", s.handleCancel)
	mux.HandleFunc("POST /api/v1/reservations/{id}/complete", s.handleComplete)

	mux.HandleFunc("POST /api/v1/businesses", s.handleCreateBusiness)
	mux.HandleFunc("GET /api/v1/businesses", s.handleListBusinesses)
	mux.HandleFunc("GET /api/v1/businesses/{id}", s.handleGetBusiness)
	mux.HandleFunc("DELETE /api/v1/businesses/{id}", s.handleDeactivateBusiness)
	mux.HandleFunc("GET /api/v1/businesses/{id}/hours", s.handleGetHours)
	mux.HandleFunc("PUT /api/v1/businesses/{id}/hours", s.handleUpdateHours)
	mux.HandleFunc("GET /api/v1/businesses/{id}/slots", s.handleSlots)
	mux.HandleFunc("GET /api/v1/businesses/{id}/report.xlsx", s.handleReport)

	mux.HandleFunc("GET /api/v1/categories", s.handleCategories)

	mux.HandleFunc("POST /api/v1/users", s.handleCreateUser)
	mux.HandleFunc("GET /api/v1/users/{id}", s.handleGetUser)

	return mux
}

// actorFrom reads the actor the upstream auth layer resolved.
func actorFrom(r *http.Request) models.Actor {
	return models.Actor{
		UserID: r.Header.Get("X-User-ID"),
		Role:   models.Role(r.Header.Get("X-Role")),
	}
}

func (s *Server) handleCreateReservation(w http.ResponseWriter, r *http.Request) {
	var input service.CreateReservationInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reservation, err := s.reservations.Create(r.Context(), actorFrom(r), input)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, reservation)
}

func (s *Server) handleListReservations(w http.ResponseWriter, r *http.Request) {
	reservations, err := s.reservations.List(r.Context(), actorFrom(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if reservations == nil {
		reservations = []models.Reservation{}
	}
	writeJSON(w, http.StatusOK, reservations)
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	reservation, err := s.reservations.Confirm(r.Context(), actorFrom(r), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reservation)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Reason string `json:"reason"`
	}
	if r.Body != nil {
		// Reason is optional; a missing body means no reason given.
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	if err := s.reservations.Cancel(r.Context(), actorFrom(r), r.PathValue("id"), body.Reason); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	reservation, err := s.reservations.Complete(r.Context(), actorFrom(r), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reservation)
}

func (s *Server) handleCreateBusiness(w http.ResponseWriter, r *http.Request) {
	var input service.CreateBusinessInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	business, err := s.businesses.Create(r.Context(), actorFrom(r), input)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, business)
}

func (s *Server) handleListBusinesses(w http.ResponseWriter, r *http.Request) {
	businesses, err := s.businesses.List(r.Context(), r.URL.Query().Get("category_id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if businesses == nil {
		businesses = []models.Business{}
	}
	writeJSON(w, http.StatusOK, businesses)
}

func (s *Server) handleGetBusiness(w http.ResponseWriter, r *http.Request) {
	business, err := s.businesses.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, business)
}

func (s *Server) handleDeactivateBusiness(w http.ResponseWriter, r *http.Request) {
	if err := s.businesses.Deactivate(r.Context(), actorFrom(r), r.PathValue("id")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetHours(w http.ResponseWriter, r *http.Request) {
	week, err := s.businesses.WeeklySchedule(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, week)
}

func (s *Server) handleUpdateHours(w http.ResponseWriter, r *http.Request) {
	var week models.WeeklySchedule
	if err := json.NewDecoder(r.Body).Decode(&week); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := s.businesses.UpdateHours(r.Context(), actorFrom(r), r.PathValue("id"), week)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleSlots(w http.ResponseWriter, r *http.Request) {
	if s.slots == nil {
		http.NotFound(w, r)
		return
	}
	businessID := r.PathValue("id")

	date, err := time.Parse("2006-01-02", r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	slotMinutes := 0
	if v := r.URL.Query().Get("minutes"); v != "" {
		slotMinutes, err = strconv.Atoi(v)
		if err != nil || slotMinutes <= 0 {
			writeError(w, http.StatusBadRequest, "minutes must be a positive integer")
			return
		}
	}

	week, err := s.businesses.WeeklySchedule(r.Context(), businessID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	slots, err := s.slots.GenerateSlots(r.Context(), businessID, week, date, slotMinutes)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if slots == nil {
		slots = []schedule.Slot{}
	}
	writeJSON(w, http.StatusOK, slots)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if s.auditLog == nil {
		http.NotFound(w, r)
		return
	}
	businessID := r.PathValue("id")

	business, err := s.businesses.Get(r.Context(), businessID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if err := requireOwner(actorFrom(r), business); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	from, to := reportRange(r)
	entries, err := s.auditLog.List(r.Context(), businessID, from, to)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="report.xlsx"`)
	if err := audit.ExportExcel(w, business.Name, entries); err != nil {
		s.logger.Error().Err(err).Str("business_id", businessID).Msg("report export failed")
	}
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.businesses.Categories(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if categories == nil {
		categories = []models.BusinessCategory{}
	}
	writeJSON(w, http.StatusOK, categories)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var u models.User
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !u.Role.Valid() {
		writeError(w, http.StatusBadRequest, "role must be CUSTOMER or BUSINESS_OWNER")
		return
	}
	if u.ID == "" {
		u.ID = uuid.New().String()
	}

	if err := s.users.CreateUser(r.Context(), &u); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	u, err := s.users.GetUser(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func requireOwner(actor models.Actor, b *models.Business) error {
	if actor.UserID == "" || actor.UserID != b.OwnerID {
		return domain.ErrUnauthorized
	}
	return nil
}

// reportRange parses from/to query params, defaulting to the last 30 days.
func reportRange(r *http.Request) (from, to time.Time) {
	to = time.Now()
	from = to.AddDate(0, 0, -30)
	if v := r.URL.Query().Get("from"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			from = t
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			to = t.AddDate(0, 0, 1)
		}
	}
	return from, to
}

// writeServiceError maps domain errors onto HTTP statuses.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var conflict *domain.ConflictError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.As(err, &conflict):
		writeError(w, http.StatusConflict, conflict.Reason)
	default:
		s.logger.Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
