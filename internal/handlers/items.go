package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"homeboard/internal/models"
)

type ItemHandler struct {
	store ItemStore
	log   zerolog.Logger
}

type CreateItemRequest struct {
	OwnerID     string    `json:"owner_id"`
	Kind        string    `json:"kind"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Responsible string    `json:"responsible"`
	AnchorTime  time.Time `json:"anchor_time"`
	LeadTime    string    `json:"lead_time"`
	Recurrence  string    `json:"recurrence"`
}

func (h *ItemHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.OwnerID == "" || req.Title == "" {
		http.Error(w, "owner_id and title are required", http.StatusBadRequest)
		return
	}
	if req.AnchorTime.IsZero() {
		http.Error(w, "anchor_time is required", http.StatusBadRequest)
		return
	}

	kind := models.Kind(req.Kind)
	if !kind.Valid() {
		http.Error(w, "kind must be 'event' or 'todo'", http.StatusBadRequest)
		return
	}

	lead := models.LeadTime(req.LeadTime)
	if lead == "" {
		lead = models.LeadNone
	}
	if !lead.Valid() {
		http.Error(w, "lead_time must be one of none, 15m, 1h, 1d", http.StatusBadRequest)
		return
	}

	recur := models.Recurrence(req.Recurrence)
	if recur == "" {
		recur = models.RecurNone
	}
	if !recur.Valid() {
		http.Error(w, "recurrence must be one of none, daily, weekly, monthly", http.StatusBadRequest)
		return
	}

	item := &models.ReminderItem{
		OwnerID:     req.OwnerID,
		Kind:        kind,
		Title:       req.Title,
		Description: req.Description,
		Responsible: req.Responsible,
		AnchorTime:  req.AnchorTime,
		LeadTime:    lead,
		Recurrence:  recur,
	}

	if err := h.store.Create(ctx, item); err != nil {
		h.log.Error().Err(err).Msg("failed to create item")
		http.Error(w, "Failed to create item", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(item)
}

func (h *ItemHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	item, err := h.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			http.Error(w, "Item not found", http.StatusNotFound)
			return
		}
		h.log.Error().Err(err).Str("item_id", id).Msg("failed to get item")
		http.Error(w, "Failed to get item", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(item)
}

func (h *ItemHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID := r.URL.Query().Get("owner_id")
	if ownerID == "" {
		http.Error(w, "owner_id query parameter is required", http.StatusBadRequest)
		return
	}

	items, err := h.store.GetByOwner(ctx, ownerID)
	if err != nil {
		h.log.Error().Err(err).Str("owner_id", ownerID).Msg("failed to list items")
		http.Error(w, "Failed to list items", http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []*models.ReminderItem{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(items)
}

func (h *ItemHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if err := h.store.Delete(ctx, id); err != nil {
		h.log.Error().Err(err).Str("item_id", id).Msg("failed to delete item")
		http.Error(w, "Failed to delete item", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
