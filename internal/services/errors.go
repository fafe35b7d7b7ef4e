package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConfiguration      = errors.New("configuration error")
	ErrParse              = errors.New("parse error")
	ErrEmptyInput         = errors.New("empty input")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrMalformedResponse  = errors.New("malformed response")
	ErrCancelled          = errors.New("cancelled")
	ErrNotFound           = errors.New("not found")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrServiceUnavailable
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsCancelled reports whether err is the expected cancellation signal rather
// than a genuine failure.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled)
}

// IsFatal reports whether err belongs to a category that must abort a run.
func IsFatal(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrConfiguration), errors.Is(err, ErrParse), errors.Is(err, ErrEmptyInput):
		return true
	default:
		return false
	}
}

// UserMessage maps an error to the short message shown to users. Per-record
// lookup failures never reach this point; only fatal categories do.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration):
		return "metadata service is not configured: " + rootCause(err)
	case errors.Is(err, ErrParse), errors.Is(err, ErrEmptyInput):
		return "file invalid: " + rootCause(err)
	case errors.Is(err, ErrServiceUnavailable), errors.Is(err, ErrMalformedResponse):
		return "cannot reach metadata service"
	case IsCancelled(err):
		return "cancelled"
	default:
		return err.Error()
	}
}

func rootCause(err error) string {
	msg := err.Error()
	if idx := strings.Index(msg, ": "); idx >= 0 && idx+2 < len(msg) {
		return msg[idx+2:]
	}
	return msg
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
