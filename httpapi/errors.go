package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hsato/toki/astronomy"
	"github.com/hsato/toki/lunisolar"
	"github.com/hsato/toki/rootfind"
)

// APIError is the structured JSON error envelope returned to clients.
type APIError struct {
	Error ErrorDetails `json:"error"`
}

// ErrorDetails carries the error code, message, and request context.
type ErrorDetails struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"requestId"`
	Timestamp string                 `json:"timestamp"`
	Path      string                 `json:"path"`
}

func writeError(w http.ResponseWriter, r *http.Request, requestID string, status int, code, message string, details map[string]interface{}) {
	resp := APIError{
		Error: ErrorDetails{
			Code:      code,
			Message:   message,
			Details:   details,
			RequestID: requestID,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Path:      r.URL.Path,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-Id", requestID)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Error("failed to encode error response", "error", err)
	}
}

// writeDomainError maps a core error to an HTTP status and code, following
// the error kinds laid out for the system: EphemerisUnavailable,
// OutOfEphemerisRange, RootFindFailed, LunisolarResolutionFailed,
// InvalidInput.
func writeDomainError(w http.ResponseWriter, r *http.Request, requestID string, err error) {
	var ephemerisErr *astronomy.ErrEphemerisUnavailable
	var rangeErr *astronomy.ErrOutOfEphemerisRange
	var rootFindErr *rootfind.ErrRootFindFailed
	var lunisolarErr *lunisolar.ErrLunisolarResolutionFailed
	var invalidErr *lunisolar.ErrInvalidInput

	switch {
	case errors.As(err, &ephemerisErr):
		writeError(w, r, requestID, http.StatusServiceUnavailable, "EPHEMERIS_UNAVAILABLE", err.Error(), nil)
	case errors.As(err, &rangeErr):
		writeError(w, r, requestID, http.StatusBadRequest, "OUT_OF_EPHEMERIS_RANGE", err.Error(), nil)
	case errors.As(err, &rootFindErr):
		writeError(w, r, requestID, http.StatusInternalServerError, "ROOT_FIND_FAILED", err.Error(), nil)
	case errors.As(err, &lunisolarErr):
		writeError(w, r, requestID, http.StatusInternalServerError, "LUNISOLAR_RESOLUTION_FAILED", err.Error(), nil)
	case errors.As(err, &invalidErr):
		writeError(w, r, requestID, http.StatusBadRequest, "INVALID_INPUT", err.Error(), nil)
	default:
		writeError(w, r, requestID, http.StatusInternalServerError, "INTERNAL_ERROR", "an internal server error occurred", nil)
	}
}

func generateRequestID() string {
	return fmt.Sprintf("req_%d", time.Now().UnixNano())
}
