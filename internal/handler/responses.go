package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/osse101/calsync/internal/calendar"
	"github.com/osse101/calsync/internal/domain"
	"github.com/osse101/calsync/internal/logger"
)

// Standard response types for consistent API responses

// SuccessResponse is the body of an operation with nothing else to report
type SuccessResponse struct {
	Success bool `json:"success"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondJSON sends a JSON response with the given status code and payload
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	buf := getBuffer()
	defer putBuffer(buf)

	// Encode first so a failure can still become a 500
	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
		http.Error(w, ErrMsgGenericServerError, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("Failed to write response buffer", "error", err)
	}
}

// respondError sends a JSON error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// respondSuccess sends {"success": true}
func respondSuccess(w http.ResponseWriter) {
	respondJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// respondServiceError logs a failed service call by error code and writes
// the mapped status and message.
func respondServiceError(w http.ResponseWriter, r *http.Request, action string, err error) {
	status, msg := mapServiceErrorToUserMessage(err)
	log := logger.FromContext(r.Context())
	attrs := []any{"error_code", calendar.ErrorCode(err), "status", status}
	if status >= http.StatusInternalServerError {
		log.Error(fmt.Sprintf(LogMsgServiceFailed, action), attrs...)
	} else {
		log.Warn(fmt.Sprintf(LogMsgServiceFailed, action), attrs...)
	}
	respondError(w, status, msg)
}

// User-facing error messages for service errors
const (
	ErrMsgGenericServerError  = "Something went wrong"
	ErrMsgUnknownError        = "Unknown error"
	ErrMsgInvalidRequestError = "Invalid request. Please check your inputs."
	ErrMsgNotConnectedError   = "Google Calendar is not connected"
	ErrMsgReauthError         = "Google Calendar access was revoked. Please reconnect."
	ErrMsgStateMismatchError  = "Authentication verification failed"
	ErrMsgRemoteBusyError     = "Google Calendar is temporarily unavailable. Please try again later."
	ErrMsgRemoteRejectedError = "Google Calendar rejected the request"
	ErrMsgRemoteNotFoundError = "Calendar resource not found"
	ErrMsgTaskNotFoundError   = "Task not found"
	ErrMsgUnknownChannelError = "Unknown channel ID"
	ErrMsgInvalidTokenError   = "Unauthorized webhook request"
	ErrMsgEncryptionError     = "Calendar integration is not configured"
)

// mapServiceErrorToUserMessage maps domain errors to HTTP status codes and
// messages users can act on. Unrecognized errors never leak their text.
func mapServiceErrorToUserMessage(err error) (int, string) {
	if err == nil {
		return http.StatusInternalServerError, ErrMsgUnknownError
	}

	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, ErrMsgInvalidRequestError
	case errors.Is(err, domain.ErrStateMismatch):
		return http.StatusUnauthorized, ErrMsgStateMismatchError
	case errors.Is(err, domain.ErrInvalidChannelToken):
		return http.StatusUnauthorized, ErrMsgInvalidTokenError
	case errors.Is(err, domain.ErrIntegrationMissing):
		return http.StatusNotFound, ErrMsgNotConnectedError
	case errors.Is(err, domain.ErrReauthRequired):
		return http.StatusConflict, ErrMsgReauthError
	case errors.Is(err, domain.ErrUnknownChannel):
		return http.StatusNotFound, ErrMsgUnknownChannelError
	case errors.Is(err, domain.ErrTaskNotFound):
		return http.StatusNotFound, ErrMsgTaskNotFoundError
	case errors.Is(err, domain.ErrRemoteNotFound):
		return http.StatusNotFound, ErrMsgRemoteNotFoundError
	case errors.Is(err, domain.ErrRemoteTransient):
		return http.StatusServiceUnavailable, ErrMsgRemoteBusyError
	case errors.Is(err, domain.ErrRemoteUnauthorized):
		return http.StatusBadGateway, ErrMsgRemoteRejectedError
	case errors.Is(err, domain.ErrRemoteRejected):
		return http.StatusBadGateway, ErrMsgRemoteRejectedError
	case errors.Is(err, domain.ErrEncryptionNotConfigured):
		return http.StatusServiceUnavailable, ErrMsgEncryptionError
	}

	return http.StatusInternalServerError, ErrMsgGenericServerError
}
