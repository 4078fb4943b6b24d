package log4g

import (
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testlogstr = "Test log АБВ こんにちは, 世界`'é\"\\\x5A\254\n\a\b\t\f\r\vи други глупости!"
const panicStr = "panic generated in writer"
const errorStr = "error generated in writer"

type PanicWriter struct{}

func (p *PanicWriter) Write(b []byte) (int, error) { panic(panicStr) }

type NilPanicWriter struct{}

func (p *NilPanicWriter) Write(b []byte) (int, error) { panic(&runtime.PanicNilError{}) }

// &runtime.PanicNilError{} instead of nil to prevent VSC problem "panic with nil value"

type ZeroPanicWriter struct{}

func (p *ZeroPanicWriter) Write(b []byte) (int, error) { panic(0) }

type ErrorWriter struct{}

func (e *ErrorWriter) Write(b []byte) (int, error) { return 0, errors.New(errorStr) }

// ShortWriter reports one byte less than it got
type ShortWriter struct{}

func (s *ShortWriter) Write(b []byte) (int, error) { return len(b) - 1, nil }

type FakeWriter struct {
	buffer []byte
}

func (f *FakeWriter) Write(b []byte) (int, error) {
	f.buffer = append(f.buffer, b...)
	return len(b), nil
}
func (f *FakeWriter) String() string { return string(f.buffer) }
func (f *FakeWriter) Clear()         { f.buffer = f.buffer[:0] }

// SyncWriter counts Sync calls
type SyncWriter struct {
	FakeWriter
	syncs int
	err   error
}

func (s *SyncWriter) Sync() error {
	s.syncs++
	return s.err
}

// PanicSink panics on every line
type PanicSink struct{}

func (PanicSink) WriteLine([]byte) error { panic(panicStr) }

// CountingSink counts lines without keeping them
type CountingSink struct {
	mtx   sync.Mutex
	lines int
}

func (c *CountingSink) WriteLine([]byte) error {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.lines++
	return nil
}

func (c *CountingSink) Count() int {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.lines
}

// Creates a logger writing to a fake output with the given threshold and
// pattern, fallback is returned as well.
func newTestLogger(level LogLevel, pattern string) (l *Logger, out, ferr *FakeWriter) {
	out, ferr = &FakeWriter{}, &FakeWriter{}
	l = InitWithParams("test", level, MustCompile(pattern), NewWriterSink(out), ferr)
	return
}

/////////////////////////////////////////////////////////////////////////////////////////

func Test_LogLevel_String(t *testing.T) {
	for level := range LogLevel(255) {
		assert.Equal(t, LevelFullNames[normLevel(level)], level.String(), fmt.Sprintf("Fail on %d", level))
	}
	assert.Equal(t, "WARN", LVL_WARN.String())
	assert.Equal(t, "UNKNOWN", LogLevel(200).String())
}

func Test_LogLevel_IsValid(t *testing.T) {
	for level := range LogLevel(255) {
		want := level >= LVL_TRACE && level <= LVL_FATAL
		assert.Equal(t, want, level.IsValid(), fmt.Sprintf("Fail on %d", level))
	}
}

func Test_Levels(t *testing.T) {
	assert.Equal(t, []LogLevel{LVL_TRACE, LVL_DEBUG, LVL_INFO, LVL_WARN, LVL_ERROR, LVL_FATAL}, Levels())
	levels := Levels()
	for i := 1; i < len(levels); i++ {
		assert.Less(t, levels[i-1], levels[i], "levels are not strictly ordered")
	}
}

func Test_ParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    LogLevel
		wantErr bool
	}{
		{"trace", LVL_TRACE, false},
		{"DEBUG", LVL_DEBUG, false},
		{" Info ", LVL_INFO, false},
		{"warn", LVL_WARN, false},
		{"warning", LVL_WARN, false},
		{"WRN", LVL_WARN, false},
		{"err", LVL_ERROR, false},
		{"Fatal", LVL_FATAL, false},
		{"ftl", LVL_FATAL, false},
		{"1", LVL_TRACE, false},
		{"6", LVL_FATAL, false},
		{"0", LVL_UNKNOWN, true},
		{"7", LVL_UNKNOWN, true},
		{"300", LVL_UNKNOWN, true},
		{"unknown", LVL_UNKNOWN, true},
		{"???", LVL_UNKNOWN, true},
		{"", LVL_UNKNOWN, true},
		{"loud", LVL_UNKNOWN, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			assert.Equal(t, tt.want, got)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidLevel)
				assert.ErrorContains(t, err, "`"+tt.input+"`")
			} else {
				assert.NoError(t, err)
			}
		})
	}
	t.Run("round_trip", func(t *testing.T) {
		for _, level := range Levels() {
			for _, names := range []*LevelMap{LevelFullNames, LevelShortNames, LevelLowerNames} {
				got, err := ParseLevel(names[level])
				require.NoError(t, err)
				assert.Equal(t, level, got)
			}
		}
	})
}

func Test_normLevel(t *testing.T) {
	for level := range LogLevel(255) {
		if level < _LVL_MAX_for_checks_only {
			assert.Equal(t, level, normLevel(level))
		} else {
			assert.Equal(t, LVL_UNKNOWN, normLevel(level))
		}
	}
}

func Test_panicDesc(t *testing.T) {
	assert.Equal(t, ": `"+panicStr+"`", panicDesc(panicStr))
	assert.Equal(t, ": (error) `"+errorStr+"`", panicDesc(errors.New(errorStr)))
	assert.Equal(t, " "+_ERROR_UNKNOWN_PANIC_TEXT, panicDesc(0))
}

func Test_joinErrorFormat(t *testing.T) {
	e1, e2 := errors.New("first"), errors.New("second")
	assert.Equal(t, "first", joinErrorFormat([]error{e1}))
	assert.Equal(t, "2 errors occurred: first; second", joinErrorFormat([]error{e1, e2}))
}

/////////////////////////////////////////////////////////////////////////////////////////

func Test_Parallel_Multithreading(t *testing.T) {
	const (
		_MAXDATALEN_ = 200 // Max len of message to be logged
		_DATACOUNT_  = 200 // Number of messages every goroutine/client has to log
		_GOROUTINES_ = 100 // Number of simultaneous goroutines/clients logging
	)
	type jobType struct {
		clnt *Logger
		task [_DATACOUNT_]int
		curr int
	}

	Rand := rand.New(rand.NewSource(time.Now().UnixNano())) // stochastic

	// Count the size of logger client/worker name (digits in GOROUTINES)
	namesize := 0
	for i := _GOROUTINES_; i > 0; i /= 10 {
		namesize += 1
	}

	// Random printable data without line breaks, so output can be split by lines
	var data [_DATACOUNT_]string
	for i := range _DATACOUNT_ {
		b := make([]byte, Rand.Intn(_MAXDATALEN_)+1)
		for j := range b {
			b[j] = byte(Rand.Intn(126-33+1) + 33)
		}
		data[i] = string(b)
	}

	for _, queued := range []bool{false, true} {
		t.Run("queued_"+strconv.FormatBool(queued), func(t *testing.T) {
			var workers [_GOROUTINES_]jobType
			var wg sync.WaitGroup
			hold := make(chan int)

			ferr := &FakeWriter{} // fallback - has to be clear after job done
			out := &FakeWriter{}
			var sink Sink = NewWriterSink(out)
			var q *Queue
			if queued {
				q = StartQueue(sink, _DATACOUNT_*_GOROUTINES_, ferr)
				sink = q
			}
			root := InitWithParams("", LVL_TRACE, MustCompile("%logger%msg"), sink, ferr)

			for i := range _GOROUTINES_ {
				workers[i].clnt = root.Named(fmt.Sprintf("%0"+strconv.Itoa(namesize)+"d", i))
				for j, s := range Rand.Perm(_DATACOUNT_) {
					workers[i].task[j] = s
				}
			}
			for i := range _GOROUTINES_ {
				wg.Add(1)
				go func(n int) {
					defer wg.Done()
					for range hold { // wait until channel is closed (to start all together)
					}
					for i := range _DATACOUNT_ {
						workers[n].clnt.Info(data[workers[n].task[i]])
					}
				}(i)
			}
			close(hold)
			wg.Wait()
			if q != nil {
				q.StopAndWait()
			}

			assert.Empty(t, ferr.buffer, "unexpected fallback errors writes")
			require.True(t, strings.HasSuffix(out.String(), "\n"))
			lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
			require.Len(t, lines, _DATACOUNT_*_GOROUTINES_)
			for i, line := range lines {
				require.Greater(t, len(line), namesize, "line %d is too short", i)
				workerId, err := strconv.Atoi(line[:namesize])
				require.NoError(t, err, "line %d: bad client name", i)
				worker := &workers[workerId]
				require.Equal(t, data[worker.task[worker.curr]], line[namesize:], "line %d: data mismatch", i)
				worker.curr++
			}
		})
	}
}
