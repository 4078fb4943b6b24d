package log4g

/*
Named child loggers.

A child is an abstraction for a program part, goroutine or module that logs
under its own name and threshold. It explicitly shares the parent's layout,
sink and hooks: changing any of them through the parent or any child affects
the whole family, while SetLevel only affects the logger it is called on.
*/

// Named returns a child logger with the given name. The child starts with the
// parent's current threshold, fallback and clock.
func (l *Logger) Named(name string) *Logger {
	child := &Logger{
		name:   name,
		level:  NewRegistry(l.Level()),
		shared: l.shared,
		clock:  l.clock,
	}
	l.sync.fbckMtx.RLock()
	child.fallbck = l.fallbck
	l.sync.fbckMtx.RUnlock()
	return child
}

// IsRelated reports whether both loggers share layout, sink and hooks.
func (l *Logger) IsRelated(other *Logger) bool {
	return other != nil && l.shared == other.shared
}
