package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/mmeshcher/meter-reading-system/internal/validation"
)

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// ChangePassword меняет пароль текущего пользователя.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.service.ChangePassword(r.Context(), actor.UserID, validation.PasswordChange{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		h.writeError(w, err, "change password", zap.String("user_id", actor.UserID.String()))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type updateContactRequest struct {
	ContactNumber string `json:"contact_number"`
}

// UpdateContact меняет контактный телефон текущего пользователя.
func (h *Handler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req updateContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.service.UpdateContact(r.Context(), actor.UserID, req.ContactNumber)
	if err != nil {
		h.writeError(w, err, "update contact", zap.String("user_id", actor.UserID.String()))
		return
	}

	h.writeJSON(w, http.StatusOK, newUserResponse(*u))
}
