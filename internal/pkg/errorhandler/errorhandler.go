package errorhandler

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/medora/medora-api/internal/middleware"
	"github.com/medora/medora-api/internal/pkg/response"
)

// HandleError logs an error with request context and sends a formatted
// error response. Balance-precondition failures are expected outcomes and
// are logged at warn level; everything else is an error.
func HandleError(ctx context.Context, w http.ResponseWriter, status int, code, message string, err error) {
	event := log.Error()
	if status < http.StatusInternalServerError {
		event = log.Warn()
	}

	event = event.
		Str("request_id", getRequestID(ctx)).
		Str("error_code", code).
		Int("status_code", status)

	if err != nil {
		event = event.Err(err)
	}

	event.Msg(message)

	response.Error(w, status, code, message)
}

// HandleValidationError logs field-level validation failures and sends a 422.
func HandleValidationError(ctx context.Context, w http.ResponseWriter, details map[string]string) {
	log.Warn().
		Str("request_id", getRequestID(ctx)).
		Interface("validation_errors", details).
		Msg("Validation failed")

	response.ValidationError(w, details)
}

// LogDatabaseError logs database errors with operation context
func LogDatabaseError(ctx context.Context, operation string, err error) {
	log.Error().
		Str("request_id", getRequestID(ctx)).
		Str("operation", operation).
		Err(err).
		Msg("Database error")
}

func getRequestID(ctx context.Context) string {
	if id := middleware.GetRequestID(ctx); id != "" {
		return id
	}
	return "unknown"
}
