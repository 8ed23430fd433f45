package logger

import "sync/atomic"

type holder struct{ Logger }

var defLogger atomic.Pointer[holder]

func init() {
	defLogger.Store(&holder{NewSlog(InfoLevel, false)})
}

// GetLogger returns the package default logger. Links and benches created
// without an explicit logger use it.
func GetLogger() Logger {
	return defLogger.Load().Logger
}

// SetLogger replaces the package default logger. A nil logger is ignored.
// Components that already took the default keep the previous one.
func SetLogger(l Logger) {
	if l != nil {
		defLogger.Store(&holder{l})
	}
}

func Debug(msg string, keysAndValues ...any) { GetLogger().Debug(msg, keysAndValues...) }

func Info(msg string, keysAndValues ...any) { GetLogger().Info(msg, keysAndValues...) }

func Warn(msg string, keysAndValues ...any) { GetLogger().Warn(msg, keysAndValues...) }

func Error(msg string, keysAndValues ...any) { GetLogger().Error(msg, keysAndValues...) }

func Fatal(msg string, keysAndValues ...any) { GetLogger().Fatal(msg, keysAndValues...) }

func SetLevel(level Level) { GetLogger().SetLevel(level) }

func With(keyValues ...any) Logger { return GetLogger().With(keyValues...) }

// Discard returns a logger that drops every record.
func Discard() Logger { return discard{} }

type discard struct{}

func (discard) Debug(string, ...any) {}
func (discard) Info(string, ...any) {}
func (discard) Warn(string, ...any) {}
func (discard) Error(string, ...any) {}
func (discard) Fatal(string, ...any) {}
func (d discard) With(...any) Logger { return d }
func (discard) Level() Level { return FatalLevel }
func (discard) SetLevel(Level) {}
