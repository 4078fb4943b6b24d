// A lightweight leveled logging package for Go. Messages are filtered by a
// process- or logger-wide threshold, rendered through a compiled layout pattern
// and written line by line to a pluggable sink.
package log4g

/*
Defines package-wide constants, enums and helper utilities used by the logger:
  - default sizes and values
  - ANSI/color related constants
  - level enum, names and parsing
  - normalization helpers
*/

import (
	"strconv"
	"strings"
)

type basetype byte // basetype is the underlying byte-sized representation used for enums

type LogLevel basetype // Logger levels (alias for byte)
type lgrState basetype

/////////////////////////////////////////////////////////////////////////////////////////

const (
	// Log level values. LVL_UNKNOWN is the zero value and never a valid
	// threshold; the trailing _LVL_MAX_for_checks_only is used as an exclusive
	// upper bound for normalization checks.
	LVL_UNKNOWN LogLevel = iota
	LVL_TRACE
	LVL_DEBUG
	LVL_INFO
	LVL_WARN
	LVL_ERROR
	LVL_FATAL
	_LVL_MAX_for_checks_only
)

const (
	// Default values for short init forms
	DEFAULT_LOG_LEVEL   = LVL_INFO
	DEFAULT_LOGGER_NAME = "main"
	DEFAULT_LAYOUT      = "%date %-5level [%logger] %msg"
	DEFAULT_TIME_FORMAT = "2006-01-02 15:04:05"
	DEFAULT_QUEUE_BUFF  = 32  // default buffer size of queued lines channel
	DEFAULT_OUT_BUFF    = 256 // initial buffer size for rendered log text
)

const (
	// ANSI colored text fragments prefix/suffix used by %color and %reset.
	// For a colored piece of text the sequence will be:
	// ANSI_COL_PRFX + colorSpec + ANSI_COL_SUFX + text + ANSI_COL_RESET
	ANSI_COL_PRFX  = "\033["
	ANSI_COL_SUFX  = "m"
	ANSI_COL_RESET = ANSI_COL_PRFX + "0" + ANSI_COL_SUFX
)

const (
	// Queue lifecycle states.
	_STATE_UNKNOWN lgrState = iota
	_STATE_ACTIVE
	_STATE_STOPPING
	_STATE_STOPPED
)

/////////////////////////////////////////////////////////////////////////////////////////

// LevelMap is a fixed-size array with one entry per log level. Used for
// level names and colors.
type LevelMap [_LVL_MAX_for_checks_only]string

// Predefined log level short names map (for %level{short})
var LevelShortNames = &LevelMap{
	"???", //LVL_UNKNOWN
	"TRC", //LVL_TRACE
	"DBG", //LVL_DEBUG
	"INF", //LVL_INFO
	"WRN", //LVL_WARN
	"ERR", //LVL_ERROR
	"FTL", //LVL_FATAL
}

// Predefined log level full names map (default for %level)
var LevelFullNames = &LevelMap{
	"UNKNOWN", //LVL_UNKNOWN
	"TRACE",   //LVL_TRACE
	"DEBUG",   //LVL_DEBUG
	"INFO",    //LVL_INFO
	"WARN",    //LVL_WARN
	"ERROR",   //LVL_ERROR
	"FATAL",   //LVL_FATAL
}

// Lower-case full names (for %level{lower} and metric labels)
var LevelLowerNames = &LevelMap{
	"unknown", //LVL_UNKNOWN
	"trace",   //LVL_TRACE
	"debug",   //LVL_DEBUG
	"info",    //LVL_INFO
	"warn",    //LVL_WARN
	"error",   //LVL_ERROR
	"fatal",   //LVL_FATAL
}

// Predefined color map for ANSI terminal (for %color)
var LevelColorOnBlackMap = &LevelMap{
	"9;90",     //LVL_UNKNOWN
	"2;90",     //LVL_TRACE
	"0;90",     //LVL_DEBUG
	"0;97",     //LVL_INFO
	"0;33",     //LVL_WARN
	"0;91",     //LVL_ERROR
	"101;1;33", //LVL_FATAL
}

// String returns the full upper-case level name ("UNKNOWN" for undefined values).
func (level LogLevel) String() string {
	return LevelFullNames[normLevel(level)]
}

// IsValid reports whether level is one of TRACE..FATAL.
func (level LogLevel) IsValid() bool {
	return level > LVL_UNKNOWN && level < _LVL_MAX_for_checks_only
}

// Levels returns all defined levels in ascending severity order.
func Levels() []LogLevel {
	levels := make([]LogLevel, 0, _LVL_MAX_for_checks_only-1)
	for level := LVL_TRACE; level < _LVL_MAX_for_checks_only; level++ {
		levels = append(levels, level)
	}
	return levels
}

// ParseLevel converts a level name into LogLevel. Full names ("warn"), short
// names ("WRN") and numeric ids ("4") are accepted, case-insensitively, and
// "warning" is treated as "warn". Anything else fails with [ErrInvalidLevel].
func ParseLevel(s string) (LogLevel, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if name == "WARNING" {
		return LVL_WARN, nil
	}
	for level := LVL_TRACE; level < _LVL_MAX_for_checks_only; level++ {
		if name == LevelFullNames[level] || name == LevelShortNames[level] {
			return level, nil
		}
	}
	if id, err := strconv.ParseUint(name, 10, 8); err == nil && LogLevel(id).IsValid() {
		return LogLevel(id), nil
	}
	return LVL_UNKNOWN, invalidLevelError(s)
}

// Generic byte normalization helper.
func norm_byte[T ~byte](val, overlimit, def T) T {
	if val < overlimit {
		return val
	} else {
		return def
	}
}

// Ensures a provided LogLevel is within the valid range
func normLevel(level LogLevel) LogLevel {
	return norm_byte(level, _LVL_MAX_for_checks_only, LVL_UNKNOWN)
}

// Converts a panic value into a compact readable string (used when
// translating panics into errors or fallback messages)
func panicDesc(panic any) (errtext string) {
	switch v := panic.(type) {
	case string:
		errtext = ": `" + v + "`"
	case error:
		errtext = ": (error) `" + v.Error() + "`"
	default:
		errtext = " " + _ERROR_UNKNOWN_PANIC_TEXT
	}
	return errtext
}

// Single-line formatter for aggregated errors (multierror default is multi-line,
// which would break the one-line-per-failure fallback output).
func joinErrorFormat(es []error) string {
	if len(es) == 1 {
		return es[0].Error()
	}
	points := make([]string, len(es))
	for i, err := range es {
		points[i] = err.Error()
	}
	return strconv.Itoa(len(es)) + " errors occurred: " + strings.Join(points, "; ")
}
