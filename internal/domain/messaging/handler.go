package messaging

import (
	"errors"
	"net/http"
	"strconv"

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

// Send charges the caller's wallet and dispatches the message.
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	var req SendRequest
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

	report, err := h.svc.ChargeAndSend(r.Context(), callerID, role, req.Body, req.To, req.MediaURL)
	if err != nil {
		switch {
		case errors.Is(err, wallet.ErrUnmappedRole):
			response.Forbidden(w, "role cannot send messages")
		case errors.Is(err, wallet.ErrInsufficientBalance):
			response.PaymentRequired(w, "insufficient credits to send message")
		case errors.Is(err, ErrRateLimited):
			response.TooManyRequests(w)
		case errors.Is(err, ErrEmptyMessage), errors.Is(err, ErrNoRecipients):
			response.BadRequest(w, err.Error())
		default:
			errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to send message", err)
		}
		return
	}

	response.OK(w, report)
}

// List returns the caller's send history.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.GetUserID(r.Context())
	role := middleware.GetRole(r.Context())

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	messages, err := h.svc.ListMessages(r.Context(), callerID, role, limit, offset)
	if err != nil {
		if errors.Is(err, wallet.ErrUnmappedRole) {
			response.Forbidden(w, "role has no message history")
			return
		}
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to list messages", err)
		return
	}

	response.OK(w, messages)
}
