package pattern

import (
	"errors"
	"fmt"
)

// ErrNoMatch is wrapped by every pattern failure.
var ErrNoMatch = errors.New("no accepted shape matched")

// MatchError describes an input a pattern refused.
type MatchError struct {
	Pattern string
	Input   any
	Cause   error
}

func (e *MatchError) Error() string {
	msg := fmt.Sprintf("pattern %q: %v for input %T(%v)", e.Pattern, ErrNoMatch, e.Input, e.Input)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *MatchError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrNoMatch}
	}
	return []error{ErrNoMatch, e.Cause}
}

func mismatch(p Pattern, input any, cause error) error {
	return &MatchError{Pattern: p.Alias(), Input: input, Cause: cause}
}
