// Package api implements the advisor-compatible HTTP API of the stub
// backend: auth, user profiles, suggestion ranking, store detection, and
// card metadata autocomplete.
package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/shomuran/cardadvisor/internal/backend"
	"github.com/shomuran/cardadvisor/internal/backend/store"
)

// Handler holds all API handler state.
type Handler struct {
	store  *store.MemoryStore
	mw     *backend.Middleware
	tokens *TokenIssuer
}

// NewHandler creates the API handler.
func NewHandler(s *store.MemoryStore, mw *backend.Middleware, tokens *TokenIssuer) *Handler {
	return &Handler{store: s, mw: mw, tokens: tokens}
}

// Routes mounts the /api routes.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(h.mw.FaultInjection)

		r.Post("/auth/register", h.Register)
		r.Post("/auth/signup", h.Signup)
		r.Post("/auth/login", h.Login)
		r.Post("/user/login", h.LoginByEmail)

		r.Get("/user/{email}", h.GetProfile)
		r.Put("/user/{email}", h.PutProfile)

		r.Post("/get-card-suggestions", h.GetSuggestions)
		r.Get("/google/detect-stores", h.DetectStores)
		r.Get("/google/detect-stores-v1", h.DetectStoresV1)

		r.Get("/cards/issuers", h.Issuers)
		r.Get("/cards/products", h.Products)
	})
}
