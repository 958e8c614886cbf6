package logger

import "codeberg.org/verne/gamepulse/internal/errors"

// Logger defines the interface for logging operations.
type Logger interface {
	Debug() *LogEvent
	Info() *LogEvent
	Warn() *LogEvent
	Error() *LogEvent
	ErrorWithCode(err errors.Error) *LogEvent
	FatalWithCode(err errors.Error) *LogEvent
}

type pkgLogger struct{}

func (pkgLogger) Debug() *LogEvent { return Debug() }
func (pkgLogger) Info() *LogEvent  { return Info() }
func (pkgLogger) Warn() *LogEvent  { return Warn() }
func (pkgLogger) Error() *LogEvent { return Error() }

func (pkgLogger) ErrorWithCode(err errors.Error) *LogEvent { return ErrorWithCode(err) }
func (pkgLogger) FatalWithCode(err errors.Error) *LogEvent { return FatalWithCode(err) }

// Default returns a Logger backed by the package-level logger.
func Default() Logger {
	return pkgLogger{}
}
