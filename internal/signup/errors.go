package signup

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pkg/errors"
)

type Code string

const (
	CodeMissingEmail  Code = "missing_email"
	CodeEmailMismatch Code = "email_mismatch"
	CodeInviteWait    Code = "invite_wait"
	CodeFailure       Code = "failure"
	CodeUnsupported   Code = "unsupported"
)

func (c Code) String() string { return string(c) }

var (
	ErrMissingEmail = &Error{
		Code:    CodeMissingEmail,
		Message: "An email address is required",
	}
	ErrEmailMismatch = &Error{
		Code:    CodeEmailMismatch,
		Message: "This email address is already in use by another player",
	}
	ErrInviteWait = &Error{
		Code:    CodeInviteWait,
		Message: "An invite was sent recently, please wait before requesting another one",
	}
	ErrUnsupported = &Error{
		Code:    CodeUnsupported,
		Message: "Not Supported",
	}
)

// Error is returned by every failing plugin operation. Message is safe to
// show to the host. Inner is a private internal error and is never part of
// the Error() string.
type Error struct {
	Code    Code
	Message string
	Inner   error
}

func (e *Error) Error() string {
	if len(e.Message) == 0 {
		return e.Code.String()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Inner }

// Cause is for [errors.Cause].
func (e *Error) Cause() error { return e.Inner }

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// CodeOf extracts the error code of err. Errors that did not come from this
// package are reported as failures.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeFailure
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// fail logs err with all of its details and returns an opaque failure.
func (s *Service) fail(ctx context.Context, err error, msg string) error {
	logargs := []any{slog.Any("error", err)}
	if stacker, ok := err.(stackTracer); ok {
		logargs = append(logargs, slog.String("stacktrace", fmt.Sprintf("%+v", stacker.StackTrace())))
	} else if cause := errors.Cause(err); cause != nil {
		if stacker, ok := cause.(stackTracer); ok {
			logargs = append(logargs, slog.String("stacktrace", fmt.Sprintf("%+v", stacker.StackTrace())))
		}
	}
	s.logger.ErrorContext(ctx, msg, logargs...)
	return &Error{Code: CodeFailure, Message: "Service Error", Inner: err}
}
