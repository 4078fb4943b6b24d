package log4g

import (
	"strconv"

	"go.uber.org/atomic"
)

// Registry holds the active threshold of a logger. The threshold is a single
// atomic word, so IsEnabled never observes a partially written value and
// never takes a lock.
//
// The zero Registry reports DEFAULT_LOG_LEVEL until SetLevel is called.
type Registry struct {
	threshold atomic.Uint32
}

// NewRegistry returns a registry with the given threshold, DEFAULT_LOG_LEVEL
// is used for invalid values.
func NewRegistry(level LogLevel) *Registry {
	r := new(Registry)
	if level.IsValid() {
		r.threshold.Store(uint32(level))
	}
	return r
}

// SetLevel changes the threshold. Values outside TRACE..FATAL are rejected
// with ErrInvalidLevel and the threshold is left unchanged.
func (r *Registry) SetLevel(level LogLevel) error {
	if !level.IsValid() {
		return invalidLevelError(strconv.Itoa(int(level)))
	}
	r.threshold.Store(uint32(level))
	return nil
}

// Level returns the current threshold.
func (r *Registry) Level() LogLevel {
	if level := LogLevel(r.threshold.Load()); level.IsValid() {
		return level
	}
	return DEFAULT_LOG_LEVEL
}

// IsEnabled reports whether a message at candidate level passes the threshold.
// Undefined candidates are never enabled.
func (r *Registry) IsEnabled(candidate LogLevel) bool {
	return candidate < _LVL_MAX_for_checks_only && candidate >= r.Level()
}
