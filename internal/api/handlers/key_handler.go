package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"
	apiContext "observer/internal/api/context"
	"observer/internal/engine/keys"
	"observer/internal/pkg/errors"
	"observer/internal/platform/auth"
)

type KeyHandler struct {
	service *keys.Service
	credit  *keys.CreditTracker
}

func NewKeyHandler(service *keys.Service, credit *keys.CreditTracker) *KeyHandler {
	return &KeyHandler{service: service, credit: credit}
}

func ownerID(r *http.Request) string {
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)
	return claims.UserID
}

func pathParam(r *http.Request, name string) string {
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	return params.ByName(name)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func (h *KeyHandler) List(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.List(ownerID(r))
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *KeyHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req struct {
		APIKey string `json:"api_key"`
		Name   string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	key, err := h.service.Add(ownerID(r), req.APIKey, req.Name)
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Priority int    `json:"priority"`
	}{key.ID, key.Label, key.Priority})
}

// SetLegacy replaces the single-key API from before pools: PUT with one key.
func (h *KeyHandler) SetLegacy(w http.ResponseWriter, r *http.Request) {
	var req struct {
		APIKey string `json:"api_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	if err := h.service.SetLegacy(ownerID(r), req.APIKey); err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *KeyHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        *string `json:"name"`
		IsExhausted *bool   `json:"is_exhausted"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	if err := h.service.Update(ownerID(r), pathParam(r, "key_id"), req.Name, req.IsExhausted); err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *KeyHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Priority *int `json:"priority"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Priority == nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	if err := h.service.Reorder(ownerID(r), pathParam(r, "key_id"), *req.Priority); err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *KeyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Remove(ownerID(r), pathParam(r, "key_id")); err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// DeleteLegacy deletes the lowest-priority key, matching the old single-key
// client that never knew key ids.
func (h *KeyHandler) DeleteLegacy(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RemoveLowest(ownerID(r)); err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Refresh checks remaining credit for the whole pool, or one key when the
// route carries a key_id.
func (h *KeyHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	result, err := h.credit.Refresh(r.Context(), ownerID(r), pathParam(r, "key_id"))
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
