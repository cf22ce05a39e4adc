package handlers

import (
	"encoding/json"
	"net/http"

	"observer/internal/engine/notify"
	"observer/internal/pkg/errors"
)

type NotifyHandler struct {
	dispatcher *notify.Dispatcher
}

func NewNotifyHandler(dispatcher *notify.Dispatcher) *NotifyHandler {
	return &NotifyHandler{dispatcher: dispatcher}
}

// SendTestEmail verifies the caller's email channel configuration.
func (h *NotifyHandler) SendTestEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		To string `json:"to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.To == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	if err := h.dispatcher.SendTestEmail(r.Context(), req.To); err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
