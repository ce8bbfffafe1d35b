package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"homeboard/internal/models"
)

type TokenHandler struct {
	store TokenStore
	log   zerolog.Logger
}

type RegisterTokenRequest struct {
	Token      string `json:"token"`
	OwnerID    string `json:"owner_id"`
	DeviceName string `json:"device_name"`
}

func (h *TokenHandler) RegisterToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req RegisterTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Token == "" || req.OwnerID == "" {
		http.Error(w, "token and owner_id are required", http.StatusBadRequest)
		return
	}

	token := &models.DeviceToken{
		Token:      req.Token,
		OwnerID:    req.OwnerID,
		DeviceName: req.DeviceName,
	}
	if err := h.store.Register(ctx, token); err != nil {
		h.log.Error().Err(err).Msg("failed to register token")
		http.Error(w, "Failed to register token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(token)
}

func (h *TokenHandler) UnregisterToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := chi.URLParam(r, "token")

	if err := h.store.Unregister(ctx, token); err != nil {
		h.log.Error().Err(err).Msg("failed to unregister token")
		http.Error(w, "Failed to unregister token", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
