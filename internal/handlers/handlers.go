// Package handlers exposes the item creation contract and the token registry
// over HTTP. The scheduler itself has no interactive callers; this surface is
// what produces the rows it sweeps.
package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"homeboard/internal/models"
)

type ItemStore interface {
	Create(ctx context.Context, item *models.ReminderItem) error
	GetByID(ctx context.Context, id string) (*models.ReminderItem, error)
	GetByOwner(ctx context.Context, ownerID string) ([]*models.ReminderItem, error)
	Delete(ctx context.Context, id string) error
}

type TokenStore interface {
	Register(ctx context.Context, token *models.DeviceToken) error
	Unregister(ctx context.Context, token string) error
}

// RunTrigger requests an immediate scheduler sweep.
type RunTrigger interface {
	Notify()
}

func NewRouter(items ItemStore, tokens TokenStore, sched RunTrigger, log zerolog.Logger) chi.Router {
	itemHandler := &ItemHandler{store: items, log: log.With().Str("component", "item_handler").Logger()}
	tokenHandler := &TokenHandler{store: tokens, log: log.With().Str("component", "token_handler").Logger()}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/items", itemHandler.CreateItem)
		r.Get("/items", itemHandler.ListItems)
		r.Get("/items/{id}", itemHandler.GetItem)
		r.Delete("/items/{id}", itemHandler.DeleteItem)

		r.Post("/tokens", tokenHandler.RegisterToken)
		r.Delete("/tokens/{token}", tokenHandler.UnregisterToken)

		r.Post("/scheduler/run", func(w http.ResponseWriter, r *http.Request) {
			sched.Notify()
			w.WriteHeader(http.StatusAccepted)
		})
	})

	return r
}
