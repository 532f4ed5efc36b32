package web

// errors.go provides unified error responses for the API.
//
// Every failure that stops a request is:
//   - logged with the technical error and request ID
//   - mapped by core.MapError to a message, action and support code
//   - written as an ErrorResponse JSON body
//
// Data diagnostics are not errors. A report with diagnostics is a 200.

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"

	"github.com/JonMunkholm/oesreport/internal/core"
	"github.com/JonMunkholm/oesreport/internal/ingest"
	"github.com/JonMunkholm/oesreport/internal/logging"
	"github.com/JonMunkholm/oesreport/internal/render"
	"github.com/JonMunkholm/oesreport/internal/schema"
)

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

var errNoFile = errors.New("no file provided")

// statusFor picks the HTTP status for a run error.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge), errors.Is(err, ingest.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ingest.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, schema.ErrInvalidSchema),
		errors.Is(err, ingest.ErrEmptyFile),
		errors.Is(err, ingest.ErrInvalidWorkbook),
		errors.Is(err, ingest.ErrInvalidJSONRows):
		return http.StatusUnprocessableEntity
	case errors.Is(err, render.ErrUnknownFormat), errors.Is(err, errNoFile):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrTooManyReports):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes its user-facing form.
func respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	msg := core.MapError(err)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	)

	writeErrorJSON(w, r, msg, status)
}

// respondErrorText is respondError for conditions that have no error value.
func respondErrorText(w http.ResponseWriter, r *http.Request, text string, status int) {
	respondError(w, r, errors.New(text), status)
}

func writeErrorJSON(w http.ResponseWriter, r *http.Request, msg core.UserMessage, status int) {
	w.Header().Set("Content-Type", "application/json")
	if id := middleware.GetReqID(r.Context()); id != "" {
		w.Header().Set("X-Request-ID", id)
	}
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	}); err != nil {
		logging.FromContext(r.Context()).Warn("write error response", "error", err)
	}
}

// writeJSON encodes v as the response body.
// Encoding errors are only logged since headers are already sent.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Warn("json encode error", "error", err)
	}
}
