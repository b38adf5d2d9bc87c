package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/agentgate-ai/agentgate/internal/session"
)

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error details.
type ErrorDetail struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Error codes
const (
	ErrCodeInvalidRequest    = "INVALID_REQUEST"
	ErrCodeSessionActive     = "SESSION_ACTIVE"
	ErrCodeNoSession         = "NO_SESSION"
	ErrCodeNoPendingApproval = "NO_PENDING_APPROVAL"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// writeSuccess writes a success response.
func writeSuccess(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// writeCoordinatorError maps coordinator sentinel errors onto API error
// codes; anything else is an internal error.
func writeCoordinatorError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrSessionActive):
		writeError(w, http.StatusConflict, ErrCodeSessionActive, err.Error())
	case errors.Is(err, session.ErrNoSession):
		writeError(w, http.StatusConflict, ErrCodeNoSession, err.Error())
	case errors.Is(err, session.ErrNoPendingApproval):
		writeError(w, http.StatusConflict, ErrCodeNoPendingApproval, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
	}
}
