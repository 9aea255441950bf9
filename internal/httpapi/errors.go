package httpapi

import (
	"encoding/json"
	"net/http"
)

// ErrorCode is the stable, machine-readable part of an error response.
type ErrorCode string

const (
	CodeInvalidParam      ErrorCode = "invalid_param"
	CodeInvalidJSON       ErrorCode = "invalid_json"
	CodeInvalidConfig     ErrorCode = "invalid_config"
	CodeMethodNotAllowed  ErrorCode = "method_not_allowed"
	CodeRateLimited       ErrorCode = "rate_limited"
	CodeForbidden         ErrorCode = "forbidden"
	CodeSaveFailed        ErrorCode = "save_failed"
	CodeReloadFailed      ErrorCode = "reload_failed"
	CodeStoreFailed       ErrorCode = "store_failed"
	CodeCheckpointFailed  ErrorCode = "checkpoint_failed"
	CodeStreamUnsupported ErrorCode = "stream_unsupported"
	CodeInternal          ErrorCode = "internal_error"
)

// APIError is the body of every JSON error response.
type APIError struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	RequestID string    `json:"request_id,omitempty"`
	Details   any       `json:"details,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, code ErrorCode, message string) {
	WriteErrorDetails(w, r, status, code, message, nil)
}

// WriteErrorDetails is WriteError with a structured payload, such as the
// validation result of a rejected config.
func WriteErrorDetails(w http.ResponseWriter, r *http.Request, status int, code ErrorCode, message string, details any) {
	WriteJSON(w, status, APIError{Error: ErrorDetail{
		Code:      code,
		Message:   message,
		RequestID: RequestIDFrom(r.Context()),
		Details:   details,
	}})
}
