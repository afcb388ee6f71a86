// file: internal/lending/errors.go
// version: 1.0.0
// guid: c1e4b7a2-5f93-4d08-8a6e-2b7f0d9c3e15

package lending

import "errors"

var (
	// ErrUnavailable means no book with the title has a free copy.
	ErrUnavailable = errors.New("book is not available")
	// ErrNoActiveLoan means no book with the title has a copy on loan.
	ErrNoActiveLoan = errors.New("book is not currently borrowed")
	// ErrInvalidInput means caller-supplied text could not be used.
	ErrInvalidInput = errors.New("invalid input")
)

// IsRejection reports whether err is an expected business outcome rather
// than a failure of the system.
func IsRejection(err error) bool {
	return errors.Is(err, ErrUnavailable) ||
		errors.Is(err, ErrNoActiveLoan) ||
		errors.Is(err, ErrInvalidInput)
}
