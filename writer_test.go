package log4g

import (
	"fmt"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Logger_Lvl(t *testing.T) {
	l := Init("")
	for level := range LogLevel(255) {
		w, ok := l.Lvl(level).(*levelWriter)
		assert.True(t, ok)
		assert.Equal(t, level, w.level, fmt.Sprintf("Fail on %d", level))
		assert.Same(t, l, w.logger)
	}
}

func Test_levelWriter_Write(t *testing.T) {
	l, out, ferr := newTestLogger(LVL_INFO, "%level %msg")

	t.Run("full_message", func(t *testing.T) {
		out.Clear()
		n, err := fmt.Fprint(l.Lvl(LVL_WARN), testlogstr)
		assert.NoError(t, err)
		assert.Equal(t, len(testlogstr), n)
		assert.Equal(t, "WARN "+testlogstr+"\n", out.String())
	})
	t.Run("trailing_newline", func(t *testing.T) {
		out.Clear()
		for _, s := range []string{"unix\n", "dos\r\n", "two\n\n"} {
			n, err := l.Lvl(LVL_ERROR).Write([]byte(s))
			assert.NoError(t, err)
			assert.Equal(t, len(s), n)
		}
		assert.Equal(t, "ERROR unix\nERROR dos\nERROR two\n\n", out.String())
	})
	t.Run("nil_message", func(t *testing.T) {
		out.Clear()
		n, err := l.Lvl(LVL_FATAL).Write(nil)
		assert.NoError(t, err)
		assert.Zero(t, n)
		assert.Empty(t, out.buffer)
	})
	t.Run("disabled_level", func(t *testing.T) {
		out.Clear()
		n, err := l.Lvl(LVL_DEBUG).Write([]byte("dropped"))
		assert.NoError(t, err)
		assert.Equal(t, 7, n)
		assert.Empty(t, out.buffer)
	})
	t.Run("std_log", func(t *testing.T) {
		out.Clear()
		std := log.New(l.Lvl(LVL_INFO), "std: ", 0)
		std.Println("bridged")
		assert.Equal(t, "INFO std: bridged\n", out.String())
	})
	t.Run("error_out", func(t *testing.T) {
		l := InitWithParams("", LVL_TRACE, nil, NewWriterSink(&ErrorWriter{}), ferr)
		n, err := fmt.Fprint(l.Lvl(LVL_INFO), "lost")
		assert.ErrorContains(t, err, errorStr)
		assert.Zero(t, n)
		assert.Empty(t, ferr.buffer, "writer errors are returned, not reported")
	})
}
