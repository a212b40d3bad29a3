// Package handler содержит HTTP-обработчики API системы учёта показаний.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/meter-reading-system/internal/export"
	"github.com/mmeshcher/meter-reading-system/internal/middleware"
	"github.com/mmeshcher/meter-reading-system/internal/model"
	"github.com/mmeshcher/meter-reading-system/internal/repository"
	"github.com/mmeshcher/meter-reading-system/internal/service"
	"github.com/mmeshcher/meter-reading-system/internal/validation"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	Location() *time.Location

	Authenticate(ctx context.Context, email, password string) (*model.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)

	SubmitReading(ctx context.Context, meterID, readerID uuid.UUID, rawValue, rawRecordedAt string) (*model.Reading, error)
	ListReadings(ctx context.Context, actor model.Actor, f model.ReadingFilter, limit int) ([]model.Reading, error)
	ListMeters(ctx context.Context, actor model.Actor) ([]model.Meter, error)
	AnalyzeMeter(ctx context.Context, meterID uuid.UUID, actor model.Actor) (*model.MeterAnalytics, error)
	Summarize(ctx context.Context, req service.SummaryRequest) (*model.AggregateReport, error)

	ExportReadings(ctx context.Context, f model.ReadingFilter) ([]export.ReadingRow, error)
	UserNames(ctx context.Context) (map[uuid.UUID]string, error)

	CreateUser(ctx context.Context, in validation.UserInput) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateUserRole(ctx context.Context, actor model.Actor, userID uuid.UUID, role model.Role) error
	ChangePassword(ctx context.Context, userID uuid.UUID, in validation.PasswordChange) error
	UpdateContact(ctx context.Context, userID uuid.UUID, contact string) (*model.User, error)

	CreateMeter(ctx context.Context, in validation.MeterInput) (*model.Meter, error)
	UpdateMeter(ctx context.Context, id uuid.UUID, in validation.MeterInput) (*model.Meter, error)
	DeleteMeter(ctx context.Context, id uuid.UUID) error
	AssignMeter(ctx context.Context, meterID, userID uuid.UUID) error
	UnassignMeter(ctx context.Context, meterID uuid.UUID) error
}

// Handler реализует HTTP-обработчики API.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
	now            func() time.Time
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
		now:            time.Now,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Login проверяет email и пароль и устанавливает cookie сессии.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		h.writeMessage(w, http.StatusBadRequest, "email and password are required")
		return
	}

	u, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, err, "login")
		return
	}

	h.authMiddleware.SetAuthCookie(w, u.ID)
	h.writeJSON(w, http.StatusOK, newUserResponse(*u))
}

// Logout удаляет cookie сессии.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authMiddleware.ClearAuthCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// Me возвращает текущего пользователя.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	u, err := h.service.GetUser(r.Context(), actor.UserID)
	if err != nil {
		h.writeError(w, err, "get current user")
		return
	}

	h.writeJSON(w, http.StatusOK, newUserResponse(*u))
}

// writeError переводит ошибку бизнес-логики в HTTP-статус. Непредвиденные ошибки
// пишутся в журнал и скрываются от клиента.
func (h *Handler) writeError(w http.ResponseWriter, err error, op string, fields ...zap.Field) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(op+" error", append(fields, zap.Error(err))...)
		h.writeMessage(w, status, http.StatusText(status))
		return
	}

	h.logger.Debug(op+" rejected", append(fields, zap.Error(err))...)
	h.writeMessage(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, validation.ErrInvalidInput),
		errors.Is(err, repository.ErrValueOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrNotAssigned),
		errors.Is(err, service.ErrAccessDenied),
		errors.Is(err, service.ErrSelfRoleChange),
		errors.Is(err, service.ErrWrongPassword):
		return http.StatusForbidden
	case errors.Is(err, repository.ErrMeterNotFound),
		errors.Is(err, repository.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrUserExists),
		errors.Is(err, repository.ErrMeterCodeExists),
		errors.Is(err, repository.ErrMeterHasReadings):
		return http.StatusConflict
	case errors.Is(err, validation.ErrMonotonicityViolation):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeMessage(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, errorResponse{Error: msg})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response", zap.Error(err))
	}
}

func actorFrom(w http.ResponseWriter, r *http.Request) (model.Actor, bool) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
	}
	return actor, ok
}
