package log4g

/*
Defines the core data types used by the logger:
  - Logger: the façade callers log through
  - shared: the layout, sink and hooks a logger shares with its named children
*/

import (
	"io"
	"sync"
	"time"

	"go.uber.org/atomic"
)

// Logger filters messages by its threshold, renders them through its layout
// and writes them to its sink.
//
// All methods are safe for concurrent use. A disabled level costs one atomic
// load and one comparison: no event is built and nothing is formatted.
type Logger struct {
	sync struct {
		fbckMtx sync.RWMutex // guards access to fallback writer
	}
	shared  *shared
	level   *Registry
	fallbck io.Writer        // fallback writer used to report write errors
	clock   func() time.Time // event time source
	name    string
}

// sinkRef boxes a Sink so it can be swapped atomically.
type sinkRef struct {
	Sink
}

// shared state of a logger family (a logger and the children made by Named).
// Layouts and hook lists are immutable values swapped as a whole.
type shared struct {
	layout  atomic.Pointer[Layout]
	sink    atomic.Pointer[sinkRef]
	hooks   atomic.Pointer[hooks]
	chngMtx sync.Mutex // serializes hook list updates
}

// writeLine hands a rendered line to the current sink.
func (s *shared) writeLine(level LogLevel, line []byte) error {
	sink := s.sink.Load().Sink
	if ls, ok := sink.(LevelSink); ok {
		return ls.WriteLevelLine(level, line)
	}
	return sink.WriteLine(line)
}
