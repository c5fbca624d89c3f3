package wallet

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/medora/medora-api/internal/domain/creditpool"
	"github.com/medora/medora-api/internal/middleware"
	"github.com/medora/medora-api/internal/pkg/errorhandler"
	"github.com/medora/medora-api/internal/pkg/response"
	"github.com/medora/medora-api/internal/pkg/validator"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type adjustRequest struct {
	OwnerID   uuid.UUID `json:"owner_id" validate:"required"`
	OwnerType string    `json:"owner_type" validate:"required,owner_type"`
	Amount    int       `json:"amount" validate:"required,gt=0"`
	Note      string    `json:"note,omitempty" validate:"max=500"`
}

// Me returns the caller's wallet snapshot, resolving the owner type from
// the authenticated role.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	ownerID, ownerType, ok := callerOwner(w, r)
	if !ok {
		return
	}

	wal, err := h.svc.GetOrCreate(r.Context(), ownerID, ownerType)
	if err != nil {
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to load wallet", err)
		return
	}

	response.OK(w, wal)
}

// MeLedger returns a page of the caller's ledger, newest first.
func (h *Handler) MeLedger(w http.ResponseWriter, r *http.Request) {
	ownerID, ownerType, ok := callerOwner(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	entries, err := h.svc.ListLedger(r.Context(), ownerID, ownerType, limit, offset)
	if err != nil {
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to load ledger", err)
		return
	}

	response.OK(w, entries)
}

// Adjust applies a manual admin credit, funded from the admin pool.
func (h *Handler) Adjust(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	if details := validator.Validate(req); details != nil {
		errorhandler.HandleValidationError(r.Context(), w, details)
		return
	}

	adminID := middleware.GetUserID(r.Context())

	wal, err := h.svc.AdminAdjust(r.Context(), req.OwnerID, OwnerType(req.OwnerType), req.Amount, req.Note, adminID)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidAmount):
			response.BadRequest(w, "amount must be greater than zero")
		case errors.Is(err, creditpool.ErrInsufficientAdminCredits):
			response.Conflict(w, "insufficient admin credits")
		default:
			errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "INTERNAL_ERROR", "manual credit failed", err)
		}
		return
	}

	response.OK(w, wal)
}

// Routes returns wallet routes: owner-facing snapshot/ledger plus the
// admin-only manual adjustment.
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/me", h.Me)
	r.Get("/me/ledger", h.MeLedger)
	r.With(middleware.RequireAdmin()).Post("/adjust", h.Adjust)
	return r
}

// callerOwner resolves the authenticated caller to a wallet owner. Writes
// the error response itself when the caller has no wallet-owning role.
func callerOwner(w http.ResponseWriter, r *http.Request) (uuid.UUID, OwnerType, bool) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return uuid.Nil, "", false
	}

	ownerType, err := OwnerTypeForRole(middleware.GetRole(r.Context()))
	if err != nil {
		response.Forbidden(w, "role has no wallet")
		return uuid.Nil, "", false
	}

	return userID, ownerType, true
}
