package services

import (
	"context"
	"errors"
	"strings"
)

// ErrorKind classifies collaborator failures for logging and user messages.
type ErrorKind string

const (
	ErrorKindExternal   ErrorKind = "external"
	ErrorKindTimeout    ErrorKind = "timeout"
	ErrorKindValidation ErrorKind = "validation"
	ErrorKindIO         ErrorKind = "io"
	ErrorKindPermission ErrorKind = "permission"
	ErrorKindTransient  ErrorKind = "transient"
)

// ServiceError carries a classified failure with enough context to render a
// one-line message for the user and a hint for the logs.
type ServiceError struct {
	Kind      ErrorKind
	Operation string
	Message   string
	Hint      string
	Cause     error
}

func (e *ServiceError) Error() string {
	parts := make([]string, 0, 3)
	if op := strings.TrimSpace(e.Operation); op != "" {
		parts = append(parts, op)
	}
	if msg := strings.TrimSpace(e.Message); msg != "" {
		parts = append(parts, msg)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}

func (e *ServiceError) Unwrap() error { return e.Cause }

// ErrorKind satisfies classifiers that inspect errors by kind string.
func (e *ServiceError) ErrorKind() string { return string(e.Kind) }

// Wrap builds a classified error. Context deadline errors are always
// reclassified as timeouts so step timeouts read consistently.
func Wrap(kind ErrorKind, operation, message string, cause error) error {
	if errors.Is(cause, context.DeadlineExceeded) {
		kind = ErrorKindTimeout
	}
	if kind == "" {
		kind = ErrorKindTransient
	}
	return &ServiceError{Kind: kind, Operation: operation, Message: message, Cause: cause}
}

// WithHint attaches an operator hint to a ServiceError, returning err unchanged otherwise.
func WithHint(err error, hint string) error {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		svcErr.Hint = hint
	}
	return err
}

// ErrorDetails is the flattened view of a classified error.
type ErrorDetails struct {
	Kind      ErrorKind
	Operation string
	Message   string
	Hint      string
	Cause     error
}

// Details extracts classification data from err. Unclassified errors report
// ErrorKindTransient with the raw error text as the message.
func Details(err error) ErrorDetails {
	if err == nil {
		return ErrorDetails{}
	}
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		message := strings.TrimSpace(svcErr.Message)
		if message == "" && svcErr.Cause != nil {
			message = strings.TrimSpace(svcErr.Cause.Error())
		}
		return ErrorDetails{
			Kind:      svcErr.Kind,
			Operation: svcErr.Operation,
			Message:   message,
			Hint:      svcErr.Hint,
			Cause:     svcErr.Cause,
		}
	}
	kind := ErrorKindTransient
	if errors.Is(err, context.DeadlineExceeded) {
		kind = ErrorKindTimeout
	}
	return ErrorDetails{Kind: kind, Message: strings.TrimSpace(err.Error()), Cause: err}
}
