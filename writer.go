package log4g

import "io"

/*
io.Writer adapter.

Lvl(level) returns a writer logging every Write call as one message at the
given level, so a logger can be passed where an io.Writer is expected:

	fmt.Fprintf(logger.Lvl(LVL_WARN), "disk low: %d%%", percent)
	log.New(logger.Lvl(LVL_INFO), "", 0) // standard library logger on top
*/

type levelWriter struct {
	logger *Logger
	level  LogLevel
}

// Lvl returns an io.Writer writing at the given level.
func (l *Logger) Lvl(level LogLevel) io.Writer {
	return &levelWriter{logger: l, level: level}
}

// Write implements io.Writer. One trailing newline ("\n" or "\r\n") is dropped
// since the sink terminates lines itself. On success it returns n=len(p) and
// err==nil, also when the level is disabled. Nil payload is a zero-length
// write with no error.
func (w *levelWriter) Write(p []byte) (n int, err error) {
	if p == nil {
		return 0, nil
	}
	msg := p
	if k := len(msg); k > 0 && msg[k-1] == '\n' {
		msg = msg[:k-1]
		if k := len(msg); k > 0 && msg[k-1] == '\r' {
			msg = msg[:k-1]
		}
	}
	if err = w.logger.LogE(w.level, string(msg)); err == nil {
		n = len(p)
	}
	return
}
