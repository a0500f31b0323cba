package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownReference indicates a reference tag other than C1, C2, Max, C3, C4 or "-".
	ErrUnknownReference = errors.New("unknown time reference")

	// ErrInvalidOperator indicates an operator other than "+" or "-".
	ErrInvalidOperator = errors.New("invalid operator")

	// ErrOffsetOutOfRange indicates an offset that one day wrap cannot normalize.
	ErrOffsetOutOfRange = errors.New("offset out of range")

	// ErrSequenceNotFound indicates that the sequence file does not exist.
	ErrSequenceNotFound = errors.New("sequence file not found")

	// ErrMalformedRow indicates a row whose fields cannot be decoded.
	ErrMalformedRow = errors.New("malformed row")

	// ErrMissingTimings indicates a sequence without a Config line.
	ErrMissingTimings = errors.New("no Config line: eclipse timings are missing")

	// ErrPreflightRejected indicates that the camera failed the Verif line.
	ErrPreflightRejected = errors.New("configuration not accepted")

	// ErrInterrupted indicates that the run was cancelled before completion.
	ErrInterrupted = errors.New("sequence interrupted")

	// ErrActionFailed indicates a strict run stopped at a failed action.
	ErrActionFailed = errors.New("action failed")

	// ErrAlreadyRunning indicates a second concurrent Run on the same sequencer.
	ErrAlreadyRunning = errors.New("a sequence is already running")
)

// LineError attaches a sequence file line number to a decode failure.
type LineError struct {
	Line int
	Tag  string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d (%s): %v", e.Line, e.Tag, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

func malformed(line int, tag, format string, args ...any) *LineError {
	return &LineError{
		Line: line,
		Tag:  tag,
		Err:  fmt.Errorf("%w: %s", ErrMalformedRow, fmt.Sprintf(format, args...)),
	}
}
