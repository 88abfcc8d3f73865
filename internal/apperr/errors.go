// Package apperr holds the error kinds shared by every service. Services wrap
// one of the sentinels with context (fmt.Errorf("%w: ...", apperr.ErrNotFound))
// and the HTTP layer maps the kind to a status code with errors.Is.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation  = errors.New("validation failed")
	ErrNotFound    = errors.New("not found")
	ErrPersistence = errors.New("persistence failure")
	ErrExternal    = errors.New("external service failure")
)

func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Persistence keeps the underlying store error in the chain.
func Persistence(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}

func External(service string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrExternal, service, err)
}

// Message returns the caller-facing part of a Validation or NotFound error,
// without the kind prefix. Other errors are returned as-is.
func Message(err error) string {
	s := err.Error()
	for _, kind := range []error{ErrValidation, ErrNotFound} {
		if errors.Is(err, kind) {
			return strings.TrimPrefix(s, kind.Error()+": ")
		}
	}
	return s
}
