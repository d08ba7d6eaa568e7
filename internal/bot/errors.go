package bot

import "errors"

var (
	// ErrFinished is returned by Session.Finish and ends the matcher run.
	ErrFinished = errors.New("matcher finished")
	// ErrPromptTimeout is returned when a prompted user does not answer in time.
	ErrPromptTimeout = errors.New("prompt timed out")
)
