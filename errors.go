package log4g

import (
	"errors"
	"strconv"
)

const (
	// Error messages used across logger operations (used for testing).
	_ERROR_MESSAGE_QUEUE_STARTED  = "queue is allready started"
	_ERROR_MESSAGE_QUEUE_INACTIVE = "queue is not active"
	_ERROR_MESSAGE_INVALID_LEVEL  = "invalid log level"
	_ERROR_MESSAGE_LAYOUT_SYNTAX  = "layout syntax error"
	_ERROR_MESSAGE_SINK_IS_NIL    = "sink is nil"
	_ERROR_UNKNOWN_PANIC_TEXT     = "[no panic description]"
)

var (
	// ErrInvalidLevel is returned when a value outside TRACE..FATAL is used
	// as a level (invalid argument).
	ErrInvalidLevel = errors.New(_ERROR_MESSAGE_INVALID_LEVEL)

	// ErrLayoutSyntax matches every *LayoutSyntaxError via errors.Is.
	ErrLayoutSyntax = errors.New(_ERROR_MESSAGE_LAYOUT_SYNTAX)

	// ErrQueueInactive is returned when a line is pushed into a stopped Queue.
	ErrQueueInactive = errors.New(_ERROR_MESSAGE_QUEUE_INACTIVE)

	// ErrQueueStarted is returned by Queue.Start on an already running queue.
	ErrQueueStarted = errors.New(_ERROR_MESSAGE_QUEUE_STARTED)
)

type levelError struct {
	value string
}

func (e *levelError) Error() string {
	return _ERROR_MESSAGE_INVALID_LEVEL + " `" + e.value + "`"
}

func (e *levelError) Is(target error) bool {
	return target == ErrInvalidLevel
}

func invalidLevelError(value string) error {
	return &levelError{value: value}
}

// LayoutSyntaxError reports a malformed layout pattern. Pos is the byte offset
// of the offending marker in Pattern and Fragment is the offending substring.
type LayoutSyntaxError struct {
	Pattern  string
	Fragment string
	Reason   string
	Pos      int
}

func (e *LayoutSyntaxError) Error() string {
	return _ERROR_MESSAGE_LAYOUT_SYNTAX + " at position " + strconv.Itoa(e.Pos) +
		" (`" + e.Fragment + "`): " + e.Reason
}

// Is makes errors.Is(err, ErrLayoutSyntax) true for any LayoutSyntaxError.
func (e *LayoutSyntaxError) Is(target error) bool {
	return target == ErrLayoutSyntax
}
