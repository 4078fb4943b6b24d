package log4g

import (
	"io"
	"os"
	"strconv"
	"sync"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/term"
)

// Sink receives rendered log lines. The line never contains the trailing
// newline, the sink terminates it. Implementations must be safe for
// concurrent use and must not interleave concurrent lines.
//
// A sink must not retain line after WriteLine returns.
type Sink interface {
	WriteLine(line []byte) error
}

// LevelSink is implemented by sinks that filter or route lines by level.
// The logger prefers WriteLevelLine when the sink implements it.
type LevelSink interface {
	Sink
	WriteLevelLine(level LogLevel, line []byte) error
}

// Syncer is implemented by sinks that buffer output (see Logger.Sync).
type Syncer interface {
	Sync() error
}

/////////////////////////////////////////////////////////////////////////////////////////

// WriterSink writes every line with a single Write call to the wrapped
// io.Writer while holding a mutex, so concurrent lines never interleave.
type WriterSink struct {
	mtx    sync.Mutex
	output io.Writer
	msgbuf []byte // buffer reused while terminating lines
}

// NewWriterSink wraps w, io.Discard is used instead of nil.
func NewWriterSink(w io.Writer) *WriterSink {
	if w == nil {
		w = io.Discard
	}
	return &WriterSink{output: w, msgbuf: make([]byte, 0, DEFAULT_OUT_BUFF)}
}

// std streams are wrapped to hide (*os.File).Sync which fails on terminals and pipes
type stdStream struct{ io.Writer }

// Stdout returns a sink writing to the process standard output.
func Stdout() *WriterSink { return NewWriterSink(stdStream{os.Stdout}) }

// Stderr returns a sink writing to the process standard error (the default sink).
func Stderr() *WriterSink { return NewWriterSink(stdStream{os.Stderr}) }

// Writer returns the wrapped io.Writer.
func (s *WriterSink) Writer() io.Writer {
	if std, ok := s.output.(stdStream); ok {
		return std.Writer
	}
	return s.output
}

// WriteLine implements Sink.
func (s *WriterSink) WriteLine(line []byte) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	defer func() { s.msgbuf = releaseLineBuff(s.msgbuf) }()
	s.msgbuf = append(append(s.msgbuf[:0], line...), '\n')
	n, err := s.output.Write(s.msgbuf)
	if err == nil && n < len(s.msgbuf) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return &writeError{written: n, err: err}
	}
	return nil
}

// Keeps a line buffer for reuse unless a huge line has blown it past
// _MAX_POOLED_BUFF, in which case a fresh default-sized one is returned.
func releaseLineBuff(buf []byte) []byte {
	if cap(buf) > _MAX_POOLED_BUFF {
		return make([]byte, 0, DEFAULT_OUT_BUFF)
	}
	return buf[:0]
}

// Sync flushes the wrapped writer when it supports it.
func (s *WriterSink) Sync() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if syncer, ok := s.output.(Syncer); ok {
		return syncer.Sync()
	}
	return nil
}

type writeError struct {
	err     error
	written int
}

func (e *writeError) Error() string {
	return "error writing log to output (" + strconv.Itoa(e.written) + " bytes written): " + e.err.Error()
}

func (e *writeError) Unwrap() error { return e.err }

/////////////////////////////////////////////////////////////////////////////////////////

// FileSink appends lines to a file. There is no rotation.
type FileSink struct {
	*WriterSink
	file *os.File
}

// NewFileSink opens (or creates) path for appending.
func NewFileSink(path string) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &FileSink{WriterSink: NewWriterSink(f), file: f}, nil
}

// Close syncs and closes the file.
func (s *FileSink) Close() error {
	merr := multierror.Append(nil, s.Sync(), s.file.Close())
	merr.ErrorFormat = joinErrorFormat
	return merr.ErrorOrNil()
}

/////////////////////////////////////////////////////////////////////////////////////////

// IsTerminal reports whether w is a terminal (used to decide on colors).
// Sinks and queues are unwrapped to their writers.
func IsTerminal(w any) bool {
	switch v := w.(type) {
	case *WriterSink:
		return IsTerminal(v.Writer())
	case *FileSink:
		return IsTerminal(v.file)
	case *Queue:
		return IsTerminal(v.target)
	case stdStream:
		return IsTerminal(v.Writer)
	case *os.File:
		return term.IsTerminal(int(v.Fd()))
	}
	return false
}
