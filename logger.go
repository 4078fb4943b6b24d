package log4g

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
)

// Creates a logger with default parameters: DEFAULT_LOG_LEVEL threshold,
// DEFAULT_LAYOUT pattern, standard error as sink and [os.Stderr] as fallback
// for write errors (all can be changed later with Set methods).
func Init(name string) *Logger {
	return InitWithParams(name, DEFAULT_LOG_LEVEL, nil, nil, os.Stderr)
}

// InitWithParams constructs a logger with explicit initial settings. Invalid
// level means DEFAULT_LOG_LEVEL, nil layout means DEFAULT_LAYOUT, nil sink
// means standard error, nil fallback silently drops error reports.
func InitWithParams(name string, level LogLevel, layout *Layout, sink Sink, fallback io.Writer) *Logger {
	l := &Logger{
		name:   name,
		level:  NewRegistry(level),
		shared: &shared{},
		clock:  time.Now,
	}
	if layout == nil {
		layout = MustCompile(DEFAULT_LAYOUT)
	}
	l.shared.layout.Store(layout)
	l.shared.hooks.Store(&hooks{})
	l.SetSink(sink)
	l.SetFallback(fallback)
	return l
}

// Name returns the logger name (rendered by %logger).
func (l *Logger) Name() string { return l.name }

// Sets the minimal level to log. Values outside TRACE..FATAL fail with
// ErrInvalidLevel and the previous threshold stays.
func (l *Logger) SetLevel(level LogLevel) error {
	return l.level.SetLevel(level)
}

// Level returns the current threshold.
func (l *Logger) Level() LogLevel {
	return l.level.Level()
}

// IsEnabled reports whether a message at level would be written.
func (l *Logger) IsEnabled(level LogLevel) bool {
	return l.level.IsEnabled(level)
}

// ConfigureLayout compiles pattern and makes it the active layout. On a
// syntax error the previously configured layout remains active.
func (l *Logger) ConfigureLayout(pattern string) error {
	layout, err := Compile(pattern)
	if err != nil {
		return err
	}
	l.SetLayout(layout)
	return nil
}

// SetLayout replaces the active layout with an already compiled one. Nil is ignored.
func (l *Logger) SetLayout(layout *Layout) *Logger {
	if layout != nil {
		l.shared.layout.Store(layout)
	}
	return l
}

// Layout returns the active layout.
func (l *Logger) Layout() *Layout {
	return l.shared.layout.Load()
}

// Sets the sink lines are written to, standard error is used instead of nil.
// Lines being written during the swap go to either the old or the new sink.
func (l *Logger) SetSink(sink Sink) *Logger {
	if sink == nil {
		sink = Stderr()
	}
	l.shared.sink.Store(&sinkRef{sink})
	return l
}

// Sink returns the current sink.
func (l *Logger) Sink() Sink {
	return l.shared.sink.Load().Sink
}

// Sets the fallback output used to report write errors, io.Discard is used
// instead of nil to silently drop them.
func (l *Logger) SetFallback(f io.Writer) *Logger {
	l.sync.fbckMtx.Lock()
	defer l.sync.fbckMtx.Unlock()
	if f != nil {
		l.fallbck = f
	} else {
		l.fallbck = io.Discard
	}
	return l
}

// Registers hooks fired after every written line.
func (l *Logger) AddHooks(hs ...Hook) *Logger {
	l.shared.chngMtx.Lock()
	defer l.shared.chngMtx.Unlock()
	current := *l.shared.hooks.Load()
	updated := make(hooks, 0, len(current)+len(hs))
	updated = append(updated, current...)
	for _, h := range hs {
		if h != nil {
			updated = append(updated, h)
		}
	}
	l.shared.hooks.Store(&updated)
	return l
}

// SetClock replaces the event time source (time.Now by default). Not safe to
// call while the logger is in use, intended for tests and replays.
func (l *Logger) SetClock(clock func() time.Time) *Logger {
	if clock != nil {
		l.clock = clock
	}
	return l
}

// Sync flushes the sink if it buffers output.
func (l *Logger) Sync() error {
	if syncer, ok := l.Sink().(Syncer); ok {
		return syncer.Sync()
	}
	return nil
}

/////////////////////////////////////////////////////////////////////////////////////////

// LogE writes s at the provided level and returns the write error (nil when
// the level is disabled). Use it when callers need to react to delivery
// problems, otherwise use Log or the level helpers.
func (l *Logger) LogE(level LogLevel, s string) error {
	if !l.level.IsEnabled(level) {
		return nil
	}
	return l.emit(level, s)
}

// Log writes s at the provided level. Any error encountered while writing is
// written as a single line to the logger fallback.
func (l *Logger) Log(level LogLevel, s string) {
	if !l.level.IsEnabled(level) {
		return
	}
	if err := l.emit(level, s); err != nil {
		l.handleLogWriteError(err.Error())
	}
}

// Logf formats the message only if level is enabled.
func (l *Logger) Logf(level LogLevel, format string, args ...any) {
	if !l.level.IsEnabled(level) {
		return
	}
	l.Log(level, fmt.Sprintf(format, args...))
}

/*
Convenience level-specific helpers. They behave like Log: nothing is returned,
write failures are reported to the logger fallback writer.
*/

// Logs a textual message at TRACE level.
//
// Use this for very verbose diagnostic information.
func (l *Logger) Trace(s string) { l.Log(LVL_TRACE, s) }

// Logs a textual message at DEBUG level.
//
// Intended for developer-focused debugging output.
func (l *Logger) Debug(s string) { l.Log(LVL_DEBUG, s) }

// Logs an informational message at INFO level.
//
// Use for normal operational messages.
func (l *Logger) Info(s string) { l.Log(LVL_INFO, s) }

// Logs a warning message at WARN level.
//
// Use for recoverable or noteworthy conditions that deserve attention.
func (l *Logger) Warn(s string) { l.Log(LVL_WARN, s) }

// Logs an error-level message. Use LogErr to log an error value.
func (l *Logger) Error(s string) { l.Log(LVL_ERROR, s) }

// Logs a message at FATAL level, the highest severity. It only logs: the
// process is not terminated and nothing panics.
func (l *Logger) Fatal(s string) { l.Log(LVL_FATAL, s) }

// LogErr logs an error value at ERROR level, nil errors are ignored.
func (l *Logger) LogErr(e error) {
	if e != nil && l.level.IsEnabled(LVL_ERROR) {
		l.Log(LVL_ERROR, e.Error())
	}
}

func (l *Logger) Tracef(format string, args ...any) { l.Logf(LVL_TRACE, format, args...) }
func (l *Logger) Debugf(format string, args ...any) { l.Logf(LVL_DEBUG, format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.Logf(LVL_INFO, format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.Logf(LVL_WARN, format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.Logf(LVL_ERROR, format, args...) }
func (l *Logger) Fatalf(format string, args ...any) { l.Logf(LVL_FATAL, format, args...) }

/////////////////////////////////////////////////////////////////////////////////////////

const _MAX_POOLED_BUFF = 64 << 10

// rendered lines are built in pooled buffers, sinks don't retain them
var linePool = sync.Pool{
	New: func() any {
		b := make([]byte, 0, DEFAULT_OUT_BUFF)
		return &b
	},
}

// emit builds the event, renders it, writes the line and fires hooks. Panics
// of sinks and hooks are converted to errors so a logging call never breaks
// the caller's control flow.
func (l *Logger) emit(level LogLevel, s string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New("log " + level.String() + ": panic writing message" + panicDesc(r))
		}
	}()
	ev := Event{Level: level, Message: s, Time: l.clock(), LoggerName: l.name}
	bufp := linePool.Get().(*[]byte)
	line := l.shared.layout.Load().AppendTo((*bufp)[:0], ev)
	defer func() {
		if cap(line) <= _MAX_POOLED_BUFF {
			*bufp = line[:0]
			linePool.Put(bufp)
		}
	}()

	var merr *multierror.Error
	if werr := l.shared.writeLine(level, line); werr != nil {
		merr = multierror.Append(merr, fmt.Errorf("log %s: failed to write message: %w", level, werr))
	} else if herr := l.shared.hooks.Load().fire(level); herr != nil {
		merr = multierror.Append(merr, fmt.Errorf("log %s: failed to fire hooks: %w", level, herr))
	}
	if merr != nil {
		merr.ErrorFormat = joinErrorFormat
	}
	return merr.ErrorOrNil()
}

// handleLogWriteError writes a human-readable error message to the fallback
// writer. A read lock is used since we only need consistent access to fallbck.
// Panics of the fallback are swallowed: there is nowhere left to report them.
func (l *Logger) handleLogWriteError(errormsg string) {
	l.sync.fbckMtx.RLock()
	defer l.sync.fbckMtx.RUnlock()
	defer func() { recover() }()
	l.fallbck.Write([]byte(errormsg + "\n"))
}
