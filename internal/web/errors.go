package web

// errors.go provides unified error responses for the API.
//
// Every error is logged with its technical detail and request id, then
// returned to the client as a JSON body built by core.MapError:
//
//	{"error": "...", "message": "...", "action": "...", "code": "RES001"}

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/resourcevault/internal/core"
	"github.com/JonMunkholm/resourcevault/internal/logging"
)

// Request-level failures the handlers report before reaching the service.
var (
	errInvalidJSON     = errors.New("invalid JSON body")
	errMissingIsActive = errors.New("is_active is required")
	errNoFile          = errors.New("no file provided")
	errFileTooLarge    = errors.New("file too large")
)

// retryAfterBusy is the Retry-After hint sent when the import limiter is full.
const retryAfterBusy = 5

// ErrorResponse is the JSON body of every error response.
// Code is machine-readable; Message and Action are for people.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrEncoding),
		errors.Is(err, core.ErrInvalidResource),
		errors.Is(err, errInvalidJSON),
		errors.Is(err, errMissingIsActive),
		errors.Is(err, errNoFile):
		return http.StatusBadRequest
	case errors.Is(err, errFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrTooManyImports):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes the mapped JSON error response.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	userMsg := core.MapError(err)

	msg, level := "request error", logging.LevelForStatus(status)
	if !core.IsUserFacing(err) {
		msg, level = "unexpected request error", slog.LevelError
	}

	logger := logging.FromContext(r.Context())
	logger.Log(r.Context(), level, msg,
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	if errors.Is(err, core.ErrTooManyImports) {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterBusy))
	}

	writeJSON(w, r, status, ErrorResponse{
		Error:   userMsg.Message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	})
}
