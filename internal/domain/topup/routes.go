package topup

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/medora/medora-api/internal/middleware"
)

// Routes returns topup routes. Listing and creation are owner-facing;
// resolution is admin-only.
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Get("/", h.List)
	r.With(middleware.RequireOwner()).Post("/", h.Create)
	r.With(middleware.RequireAdmin()).Patch("/{id}", h.Resolve)

	return r
}
