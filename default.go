package log4g

/*
The default logger.

It is created at process start with Init(DEFAULT_LOGGER_NAME) and lives until
exit; it holds no resources besides its sink, so there is no teardown. The
package-level helpers below log through it.
*/

var defaultLogger = Init(DEFAULT_LOGGER_NAME)

// Default returns the process-wide default logger.
func Default() *Logger { return defaultLogger }

// SetLevel sets the default logger threshold.
func SetLevel(level LogLevel) error { return defaultLogger.SetLevel(level) }

// GetLevel returns the default logger threshold.
func GetLevel() LogLevel { return defaultLogger.Level() }

// ConfigureLayout sets the default logger layout (see Logger.ConfigureLayout).
func ConfigureLayout(pattern string) error { return defaultLogger.ConfigureLayout(pattern) }

// SetSink sets the default logger sink.
func SetSink(sink Sink) { defaultLogger.SetSink(sink) }

func Trace(s string) { defaultLogger.Log(LVL_TRACE, s) }
func Debug(s string) { defaultLogger.Log(LVL_DEBUG, s) }
func Info(s string)  { defaultLogger.Log(LVL_INFO, s) }
func Warn(s string)  { defaultLogger.Log(LVL_WARN, s) }
func Error(s string) { defaultLogger.Log(LVL_ERROR, s) }

// Fatal logs at FATAL level through the default logger. It does not exit.
func Fatal(s string) { defaultLogger.Log(LVL_FATAL, s) }
