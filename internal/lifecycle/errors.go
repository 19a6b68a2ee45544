package lifecycle

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the engine wraps exactly one of
// these; the HTTP layer maps them to status codes.
var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
	ErrConflict  = errors.New("conflict")
	ErrInvalid   = errors.New("invalid")
)

func notFound(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
}

func forbidden(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrForbidden)
}

func conflict(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrConflict)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalid)
}

// Kind returns the error kind wrapped by err, or nil when err carries none.
func Kind(err error) error {
	for _, kind := range []error{ErrNotFound, ErrForbidden, ErrConflict, ErrInvalid} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
