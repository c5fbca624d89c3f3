package topup

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/medora/medora-api/internal/domain/creditpool"
	"github.com/medora/medora-api/internal/domain/wallet"
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

// Create files a top-up request for the calling owner.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	if details := validator.Validate(req); details != nil {
		errorhandler.HandleValidationError(r.Context(), w, details)
		return
	}

	callerID := middleware.GetUserID(r.Context())
	role := middleware.GetRole(r.Context())

	created, err := h.svc.Create(r.Context(), callerID, role, req.Credits, req.Note)
	if err != nil {
		switch {
		case errors.Is(err, wallet.ErrUnmappedRole):
			response.Forbidden(w, "role cannot request credits")
		case errors.Is(err, ErrInvalidAmount):
			response.BadRequest(w, "credits must be greater than zero")
		default:
			errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to create topup request", err)
		}
		return
	}

	response.Created(w, created)
}

// List returns requests visible to the caller, optionally filtered by
// ?status=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.GetUserID(r.Context())
	role := middleware.GetRole(r.Context())

	var status *Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := Status(raw)
		if s != StatusPending && s != StatusApproved && s != StatusRejected {
			response.BadRequest(w, "invalid status filter")
			return
		}
		status = &s
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	requests, err := h.svc.List(r.Context(), callerID, role, status, limit, offset)
	if err != nil {
		if errors.Is(err, wallet.ErrUnmappedRole) {
			response.Forbidden(w, "role cannot view topup requests")
			return
		}
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to list topup requests", err)
		return
	}

	response.OK(w, requests)
}

// Resolve applies an admin decision to a pending request.
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	requestID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid request id")
		return
	}

	var req ResolveRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	if details := validator.Validate(req); details != nil {
		errorhandler.HandleValidationError(r.Context(), w, details)
		return
	}

	adminID := middleware.GetUserID(r.Context())

	resolved, err := h.svc.Resolve(r.Context(), requestID, Status(req.Status), req.AdminNote, adminID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.NotFound(w, "topup request not found")
		case errors.Is(err, ErrAlreadyProcessed):
			response.Conflict(w, "topup request already processed")
		case errors.Is(err, creditpool.ErrInsufficientAdminCredits):
			response.Conflict(w, "insufficient admin credits to approve request")
		default:
			errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to resolve topup request", err)
		}
		return
	}

	response.OK(w, resolved)
}
