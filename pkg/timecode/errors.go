package timecode

import (
	"errors"
	"fmt"
)

var (
	// ErrNegativeGroup is returned when a constructor receives a negative
	// group value.
	ErrNegativeGroup = errors.New("negative timecode group")

	// ErrGroupOutOfRange is returned when a parsed group exceeds its modulus.
	ErrGroupOutOfRange = errors.New("timecode group out of range")

	// ErrRateMismatch is returned by arithmetic between timecodes at
	// different frame rates.
	ErrRateMismatch = errors.New("timecode frame rates differ")

	// ErrDivideByZero is the panic value for division by a zero-tick operand.
	ErrDivideByZero = errors.New("timecode division by zero")

	ErrInvalidLength    = errors.New("invalid timecode length")
	ErrInvalidDigit     = errors.New("invalid timecode digit")
	ErrInvalidSeparator = errors.New("invalid timecode separator")
)

// ParseError describes a malformed timecode string.
type ParseError struct {
	Input  string
	Offset int // byte offset of the offending character, -1 for length errors
	Err    error
}

func (e *ParseError) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("parse timecode %q: %v", e.Input, e.Err)
	}
	return fmt.Sprintf("parse timecode %q: %v at offset %d", e.Input, e.Err, e.Offset)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
