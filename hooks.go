package log4g

// Hook is fired after a line of the given level was written to the sink.
// The call must be non-blocking.
type Hook interface {
	Fire(LogLevel) error
}

// HookFunc adapts a plain function to Hook.
type HookFunc func(LogLevel) error

// Fire implements Hook.
func (f HookFunc) Fire(level LogLevel) error { return f(level) }

// hooks is an immutable list; the logger swaps it as a whole when hooks are added.
type hooks []Hook

// fire triggers all the hooks for the given level, stopping at the first error.
func (hs hooks) fire(level LogLevel) error {
	for _, hook := range hs {
		if err := hook.Fire(level); err != nil {
			return err
		}
	}
	return nil
}
