package web

// errors.go turns service errors into JSON responses.
//
// Every failure is logged with its technical detail and request id, then
// mapped through core.MapError to a user message with a support code. The
// HTTP status is derived from the error's type.

import (
	"errors"
	"net/http"

	"github.com/JonMunkholm/sheetdocs/internal/core"
	"github.com/JonMunkholm/sheetdocs/internal/logging"
	"github.com/JonMunkholm/sheetdocs/internal/remote"
	"github.com/JonMunkholm/sheetdocs/internal/scan"
)

// ErrorResponse is the JSON body of a failed request. It shares the
// success/message shape of core.Result.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// errBadRequest marks malformed input detected by a handler.
type errBadRequest struct{ msg string }

func (e errBadRequest) Error() string { return e.msg }

func badRequest(msg string) error { return errBadRequest{msg: msg} }

// respondError logs err and writes the mapped user message.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)

	var br errBadRequest
	msg := core.MapError(err)
	switch {
	case errors.As(err, &br):
		msg = core.UserMessage{Message: br.msg, Action: "Correct the request and try again", Code: "REQ001"}
	case errors.Is(err, scan.ErrBusy):
		msg = core.UserMessage{Message: "Too many documents are being scanned", Action: "Wait a moment and try again", Code: "SCN002"}
	case isScanError(err):
		msg = core.UserMessage{Message: "The document could not be read", Action: "Check the file and document kind, then try again", Code: "SCN001"}
	}

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request error", attrs...)
	}

	writeJSON(w, status, ErrorResponse{
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// statusFor derives the HTTP status from an error.
func statusFor(err error) int {
	var (
		br  errBadRequest
		ve  *core.ValidationError
		rio *core.RemoteIOError
	)
	switch {
	case errors.As(err, &br), errors.As(err, &ve), errors.Is(err, scan.ErrEmptyDocument):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound), errors.Is(err, core.ErrUnknownTable), errors.Is(err, core.ErrUnknownView):
		return http.StatusNotFound
	case errors.Is(err, remote.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.As(err, &rio) && core.MapError(err).Code == "RIO001":
		return http.StatusUnauthorized
	case errors.Is(err, scan.ErrBusy):
		return http.StatusTooManyRequests
	case isScanError(err):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func isScanError(err error) bool {
	var se *scan.Error
	return errors.As(err, &se)
}
