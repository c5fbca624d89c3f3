package creditpool

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/medora/medora-api/internal/middleware"
	"github.com/medora/medora-api/internal/pkg/errorhandler"
	"github.com/medora/medora-api/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// updateRequest carries an optional top-up and/or threshold change.
// At least one of amount / low_threshold must be present.
type updateRequest struct {
	Amount       *int   `json:"amount,omitempty"`
	Note         string `json:"note,omitempty"`
	LowThreshold *int   `json:"low_threshold,omitempty"`
}

// Get returns the pool snapshot including the derived is_low flag.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Snapshot(r.Context())
	if err != nil {
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to load credit pool", err)
		return
	}
	response.OK(w, snap)
}

// Update applies a top-up and/or threshold change.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	if req.Amount == nil && req.LowThreshold == nil {
		response.BadRequest(w, "amount or low_threshold is required")
		return
	}

	// Reject up front so a bad amount cannot leave a combined request
	// half-applied after the threshold change.
	if req.Amount != nil && *req.Amount <= 0 {
		response.BadRequest(w, "amount must be greater than zero")
		return
	}
	if req.LowThreshold != nil && *req.LowThreshold < 0 {
		response.BadRequest(w, "low_threshold must not be negative")
		return
	}

	var snap *Snapshot
	var err error

	if req.LowThreshold != nil {
		snap, err = h.svc.UpdateLowThreshold(r.Context(), *req.LowThreshold)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
	}

	if req.Amount != nil {
		adminID := middleware.GetUserID(r.Context()).String()
		snap, err = h.svc.AddCredits(r.Context(), *req.Amount, req.Note, adminID)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
	}

	response.OK(w, snap)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidAmount):
		response.BadRequest(w, "amount must be greater than zero")
	case errors.Is(err, ErrInvalidThreshold):
		response.BadRequest(w, "low_threshold must not be negative")
	case errors.Is(err, ErrInsufficientAdminCredits):
		response.Conflict(w, "insufficient admin credits")
	default:
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "INTERNAL_ERROR", "credit pool operation failed", err)
	}
}

// Routes returns admin-only credit pool routes.
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Use(middleware.RequireAdmin())
	r.Get("/", h.Get)
	r.Post("/", h.Update)
	return r
}
