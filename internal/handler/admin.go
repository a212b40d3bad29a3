package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/meter-reading-system/internal/model"
	"github.com/mmeshcher/meter-reading-system/internal/validation"
)

type createUserRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Role          string `json:"role"`
	ContactNumber string `json:"contact_number"`
	Password      string `json:"password"`
}

// CreateUser создаёт пользователя.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.service.CreateUser(r.Context(), validation.UserInput{
		Name:          req.Name,
		Email:         req.Email,
		Role:          model.Role(req.Role),
		ContactNumber: req.ContactNumber,
		Password:      req.Password,
	})
	if err != nil {
		h.writeError(w, err, "create user")
		return
	}

	h.writeJSON(w, http.StatusCreated, newUserResponse(*u))
}

// ListUsers возвращает всех пользователей.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.writeError(w, err, "list users")
		return
	}

	resp := make([]userResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, newUserResponse(u))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

// UpdateUserRole меняет роль пользователя.
func (h *Handler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	userID, ok := h.pathUUID(w, r, "userID")
	if !ok {
		return
	}

	var req updateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.service.UpdateUserRole(r.Context(), actor, userID, model.Role(req.Role)); err != nil {
		h.writeError(w, err, "update user role", zap.String("user_id", userID.String()))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type meterRequest struct {
	Code        string `json:"code"`
	Location    string `json:"location"`
	Status      string `json:"status"`
	ReadingType string `json:"reading_type"`
}

func (req meterRequest) input() validation.MeterInput {
	return validation.MeterInput{
		Code:        req.Code,
		Location:    req.Location,
		Status:      model.MeterStatus(req.Status),
		ReadingType: model.ReadingType(req.ReadingType),
	}
}

// CreateMeter создаёт счётчик.
func (h *Handler) CreateMeter(w http.ResponseWriter, r *http.Request) {
	var req meterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	m, err := h.service.CreateMeter(r.Context(), req.input())
	if err != nil {
		h.writeError(w, err, "create meter")
		return
	}

	h.writeJSON(w, http.StatusCreated, newMeterResponse(*m))
}

// UpdateMeter изменяет атрибуты счётчика.
func (h *Handler) UpdateMeter(w http.ResponseWriter, r *http.Request) {
	meterID, ok := h.pathUUID(w, r, "meterID")
	if !ok {
		return
	}

	var req meterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	m, err := h.service.UpdateMeter(r.Context(), meterID, req.input())
	if err != nil {
		h.writeError(w, err, "update meter", zap.String("meter_id", meterID.String()))
		return
	}

	h.writeJSON(w, http.StatusOK, newMeterResponse(*m))
}

// DeleteMeter удаляет счётчик без показаний.
func (h *Handler) DeleteMeter(w http.ResponseWriter, r *http.Request) {
	meterID, ok := h.pathUUID(w, r, "meterID")
	if !ok {
		return
	}

	if err := h.service.DeleteMeter(r.Context(), meterID); err != nil {
		h.writeError(w, err, "delete meter", zap.String("meter_id", meterID.String()))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type assignmentRequest struct {
	UserID string `json:"user_id"`
}

// AssignMeter закрепляет счётчик за пользователем.
func (h *Handler) AssignMeter(w http.ResponseWriter, r *http.Request) {
	meterID, ok := h.pathUUID(w, r, "meterID")
	if !ok {
		return
	}

	var req assignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		h.writeMessage(w, http.StatusBadRequest, "invalid user id")
		return
	}

	if err := h.service.AssignMeter(r.Context(), meterID, userID); err != nil {
		h.writeError(w, err, "assign meter",
			zap.String("meter_id", meterID.String()),
			zap.String("user_id", userID.String()),
		)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UnassignMeter снимает закрепление счётчика.
func (h *Handler) UnassignMeter(w http.ResponseWriter, r *http.Request) {
	meterID, ok := h.pathUUID(w, r, "meterID")
	if !ok {
		return
	}

	if err := h.service.UnassignMeter(r.Context(), meterID); err != nil {
		h.writeError(w, err, "unassign meter", zap.String("meter_id", meterID.String()))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
