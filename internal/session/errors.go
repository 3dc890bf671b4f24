package session

import (
	"errors"
	"fmt"
)

// Cause identifies why a submission was rejected.
type Cause int

const (
	CauseEarnedExceedsTotal Cause = iota + 1
	CauseZeroTotal
	CauseNegativeValue
	CauseNotFinite
)

func (c Cause) String() string {
	switch c {
	case CauseEarnedExceedsTotal:
		return "earned exceeds total"
	case CauseZeroTotal:
		return "total is zero"
	case CauseNegativeValue:
		return "negative value"
	case CauseNotFinite:
		return "value is not finite"
	default:
		return "invalid input"
	}
}

// ValidationError rejects a submission before any state is mutated.
type ValidationError struct{ Cause Cause }

func (e *ValidationError) Error() string { return e.Cause.String() }

// Is matches any ValidationError with the same cause.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Cause == e.Cause
}

var (
	ErrEarnedExceedsTotal = &ValidationError{Cause: CauseEarnedExceedsTotal}
	ErrZeroTotal          = &ValidationError{Cause: CauseZeroTotal}
	ErrNegativeValue      = &ValidationError{Cause: CauseNegativeValue}
	ErrNotFinite          = &ValidationError{Cause: CauseNotFinite}
)

// ParseError means an input could not be read as a number at all.
type ParseError struct {
	Field string // earned|total
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: cannot parse %q as a number", e.Field, e.Input)
}

func (e *ParseError) Unwrap() error { return e.Err }

var errNotFinite = errors.New("value is not finite")
