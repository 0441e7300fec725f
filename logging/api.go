package logging

import (
	"fmt"
)

// logger is a global reference to a shared Logger.  It starts out silent so
// that packages used as a library (and their tests) print nothing until the
// CLI calls Initialize.
var logger = newLogger(LogLevelSilent, false)

// Initialize initializes the global logger with the provided log level
func Initialize(loglevelname string, debug bool) {
	var loglevel int
	switch loglevelname {
	case "silent":
		loglevel = LogLevelSilent
	case "error":
		loglevel = LogLevelError
	case "warning", "warn":
		loglevel = LogLevelWarning
	// everything else (including invalid log levels) should default to verbose
	default:
		loglevel = LogLevelVerbose
	}

	logger = newLogger(loglevel, debug)
}

// ShouldProceed indicates whether or not the log module has encountered any
// errors since it was initialized
func ShouldProceed() bool {
	return logger.errorCount == 0
}

// ErrorCount returns the number of errors logged so far
func ErrorCount() int {
	return logger.errorCount
}

// WarningCount returns the number of warnings waiting to be displayed
func WarningCount() int {
	return len(logger.warnings)
}

// DebugEnabled reports whether parser tracing was requested
func DebugEnabled() bool {
	return logger.debug
}

// -----------------------------------------------------------------------------
// NOTE: All log functions will only display if the appropriate log level is
// set.  Most log functions will simply fail silently if below their appropriate
// log level.

// LogCompileError logs a compilation error (user-induced, bad code).  The
// line text and column may be empty/negative if no source window should be
// displayed.
func LogCompileError(file string, line, col int, message, text string) {
	logger.handleMsg(&CompileMessage{
		File:     file,
		Line:     line,
		Col:      col,
		Message:  message,
		LineText: text,
		IsError:  true,
	})
}

// LogCompileWarning logs a compilation warning (user-induced, problematic code)
func LogCompileWarning(file string, line, col int, message, text string) {
	logger.handleMsg(&CompileMessage{
		File:     file,
		Line:     line,
		Col:      col,
		Message:  message,
		LineText: text,
		IsError:  false,
	})
}

// LogConfigError logs an error related to project, grammar or compiler
// configuration
func LogConfigError(kind, message string) {
	logger.handleMsg(&ConfigMessage{Kind: kind, Message: message, IsError: true})
}

// LogBuildWarning logs a warning in the build process
func LogBuildWarning(kind, warning string) {
	logger.handleMsg(&ConfigMessage{Kind: kind, Message: warning, IsError: false})
}

// LogFatal logs a fatal compilation error that was not expected: ie. the
// compiler did something it wasn't supposed to.
func LogFatal(message string) {
	logger.m.Lock()
	defer logger.m.Unlock()

	logger.errorCount++
	if logger.LogLevel > LogLevelSilent {
		displayEndPhase(false)
		displayFatalError(message)
	}
}

// LogDebug prints one line of parser trace output if debugging is enabled
func LogDebug(format string, args ...interface{}) {
	if logger.debug {
		logger.m.Lock()
		defer logger.m.Unlock()

		displayDebug(fmt.Sprintf(format, args...))
	}
}

// -----------------------------------------------------------------------------
// Below are the "aesthetic" functions that only display at verbose log level.

// LogCompileHeader displays the compiler version and the file being compiled
func LogCompileHeader(file string, optimize bool) {
	if logger.LogLevel == LogLevelVerbose {
		displayCompileHeader(file, optimize)
	}
}

// LogBeginPhase starts the spinner for a new compilation phase
func LogBeginPhase(phase string) {
	if logger.LogLevel == LogLevelVerbose && !logger.debug {
		displayBeginPhase(phase)
	}
}

// LogEndPhase ends the current compilation phase
func LogEndPhase() {
	if logger.LogLevel == LogLevelVerbose {
		displayEndPhase(ShouldProceed())
	}
}

// LogCompilationFinished displays all held warnings and the closing message
func LogCompilationFinished() {
	warningCount := len(logger.warnings)
	logger.flushWarnings()

	if logger.LogLevel > LogLevelSilent {
		displayCompilationFinished(ShouldProceed(), logger.errorCount, warningCount)
	}
}

// EnableDebug turns on parser tracing after the logger was initialized
func EnableDebug() {
	logger.m.Lock()
	defer logger.m.Unlock()

	logger.debug = true
}
