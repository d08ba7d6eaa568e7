package command

import (
	"errors"
	"fmt"
)

var (
	ErrHeaderMismatch  = errors.New("header mismatch")
	ErrMissingArgument = errors.New("missing argument")
	ErrUnexpectedToken = errors.New("unexpected token")
	ErrHelpRequested   = errors.New("help requested")
)

// BindError reports an argument that could not be bound.
type BindError struct {
	Path  string
	Arg   string
	Input any
	Err   error
}

func (e *BindError) Error() string {
	if e.Input == nil {
		return fmt.Sprintf("bind %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("bind %s: %v (got %v)", e.Path, e.Err, e.Input)
}

func (e *BindError) Unwrap() error {
	return e.Err
}
