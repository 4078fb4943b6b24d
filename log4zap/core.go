// Package log4zap routes zap loggers through a log4g Logger, so code written
// against zap shares the threshold, layout and sink of the rest of the program.
package log4zap

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/abyssdigger/log4g"
)

// core implements zapcore.Core on top of a log4g Logger
type core struct {
	logger *log4g.Logger
	fields []zapcore.Field
}

var _ zapcore.Core = (*core)(nil)

// NewCore returns a zapcore.Core writing through l. Level checks are answered
// by l, so l.SetLevel affects zap loggers built on it immediately.
func NewCore(l *log4g.Logger) zapcore.Core {
	return &core{logger: l}
}

// New creates a zap logger on top of l.
//
// zap still handles Panic and Fatal entries itself: they are written at FATAL
// and then zap panics or exits as documented by zap.
func New(l *log4g.Logger, opts ...zap.Option) *zap.Logger {
	return zap.New(NewCore(l), opts...)
}

// Level maps a zap level to a log4g level. Levels below Debug map to TRACE,
// DPanic and above map to FATAL.
func Level(level zapcore.Level) log4g.LogLevel {
	switch {
	case level < zapcore.DebugLevel:
		return log4g.LVL_TRACE
	case level == zapcore.DebugLevel:
		return log4g.LVL_DEBUG
	case level == zapcore.InfoLevel:
		return log4g.LVL_INFO
	case level == zapcore.WarnLevel:
		return log4g.LVL_WARN
	case level == zapcore.ErrorLevel:
		return log4g.LVL_ERROR
	default:
		return log4g.LVL_FATAL
	}
}

func (c *core) Enabled(level zapcore.Level) bool {
	return c.logger.IsEnabled(Level(level))
}

func (c *core) With(fields []zapcore.Field) zapcore.Core {
	clone := &core{logger: c.logger, fields: make([]zapcore.Field, 0, len(c.fields)+len(fields))}
	clone.fields = append(append(clone.fields, c.fields...), fields...)
	return clone
}

func (c *core) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

// Write renders the entry as a single log4g message:
//
//	[zapname: ]message key=value ...
//
// Fields are sorted by key. On duplicate keys call fields win over With fields.
func (c *core) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for i := range c.fields {
		c.fields[i].AddTo(enc)
	}
	for i := range fields {
		fields[i].AddTo(enc)
	}

	var sb strings.Builder
	if ent.LoggerName != "" {
		sb.WriteString(ent.LoggerName)
		sb.WriteString(": ")
	}
	sb.WriteString(ent.Message)

	keys := make([]string, 0, len(enc.Fields))
	for k := range enc.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, " %s=%v", k, enc.Fields[k])
	}
	return c.logger.LogE(Level(ent.Level), sb.String())
}

func (c *core) Sync() error {
	return c.logger.Sync()
}
