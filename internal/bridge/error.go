package bridge

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/pkg/errors"

	"github.com/harrybrwn/neucore-slack/internal/signup"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

const codeInvalidRequest = "invalid_request"

// Status maps a plugin error code to an HTTP status.
func Status(code signup.Code) int {
	switch code {
	case signup.CodeMissingEmail:
		return http.StatusBadRequest
	case signup.CodeEmailMismatch:
		return http.StatusConflict
	case signup.CodeInviteWait:
		return http.StatusTooManyRequests
	case signup.CodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := signup.CodeOf(err)
	status := Status(code)
	msg := "Service Error"
	var e *signup.Error
	if errors.As(err, &e) {
		msg = e.Error()
	}
	if status >= 500 && code != signup.CodeUnsupported {
		s.logger.ErrorContext(r.Context(), "request failed", slog.Any("error", err))
	} else {
		s.logger.DebugContext(r.Context(), "request rejected", slog.String("code", code.String()))
	}
	s.writeJSON(w, r, status, ErrorResponse{Error: code.String(), Message: msg})
}

func (s *Server) writeInvalid(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.InfoContext(r.Context(), "invalid request", slog.Any("error", err))
	s.writeJSON(w, r, http.StatusBadRequest, ErrorResponse{
		Error:   codeInvalidRequest,
		Message: err.Error(),
	})
}

func (s *Server) writeEmpty(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WarnContext(r.Context(), "failed to write response", slog.Any("error", err))
	}
}
