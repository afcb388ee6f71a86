// file: internal/codec/errors.go
// version: 1.0.0
// guid: 5b0c7a0e-8d59-4c1a-9d0e-0a7f3c8a41b2

package codec

import (
	"errors"
	"fmt"
)

// ErrMalformedRecord is matched by every *ParseError via errors.Is.
var ErrMalformedRecord = errors.New("malformed record")

// ParseError describes a record line that could not be decoded.
type ParseError struct {
	Line   int // 1-based line number, 0 when decoding a lone record
	Record string
	Reason string
	Err    error
}

func newParseError(record, reason string, cause error) *ParseError {
	return &ParseError{Record: record, Reason: reason, Err: cause}
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("%s %q: %s", ErrMalformedRecord, e.Record, e.Reason)
	if e.Line > 0 {
		msg = fmt.Sprintf("line %d: %s", e.Line, msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrMalformedRecord) hold for any ParseError.
func (e *ParseError) Is(target error) bool {
	return target == ErrMalformedRecord
}
