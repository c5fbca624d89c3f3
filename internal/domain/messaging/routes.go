package messaging

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/medora/medora-api/internal/middleware"
)

// Routes returns messaging routes. Sending is restricted to wallet owners.
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Use(middleware.RequireOwner())

	r.Post("/", h.Send)
	r.Get("/", h.List)

	return r
}
