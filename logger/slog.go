package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/phsym/console-slog"
)

// Format selects how a SlogLogger renders records.
type Format uint8

const (
	// FormatAuto renders with the console handler when the ENV environment
	// variable is "development" and as JSON otherwise.
	FormatAuto Format = iota
	// FormatJSON renders one JSON object per record, with the time under "ts".
	FormatJSON
	// FormatConsole renders colored, human readable records.
	FormatConsole
	// FormatText renders logfmt-style key=value records.
	FormatText
)

// ParseFormat converts "auto", "json", "console" or "text" into a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "auto", "":
		return FormatAuto, nil
	case "json":
		return FormatJSON, nil
	case "console":
		return FormatConsole, nil
	case "text":
		return FormatText, nil
	}
	return FormatAuto, fmt.Errorf("logger: unknown format %q", name)
}

// Options configures a SlogLogger.
type Options struct {
	// Output defaults to os.Stdout.
	Output    io.Writer
	Level     Level
	Format    Format
	AddSource bool
}

// SlogLogger is a Logger backed by log/slog. Child loggers created by With
// share the level of their parent.
type SlogLogger struct {
	logger *slog.Logger
	level  *slog.LevelVar
}

var _ Logger = (*SlogLogger)(nil)

// New creates a slog based logger.
func New(opts Options) *SlogLogger {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	format := opts.Format
	if format == FormatAuto {
		format = FormatJSON
		if os.Getenv("ENV") == "development" {
			format = FormatConsole
		}
	}

	level := &slog.LevelVar{}
	level.Set(toSlogLevel(opts.Level))

	var handler slog.Handler
	switch format {
	case FormatConsole:
		handler = console.NewHandler(opts.Output, &console.HandlerOptions{
			AddSource: opts.AddSource,
			Level:     level,
		})
	case FormatText:
		handler = slog.NewTextHandler(opts.Output, &slog.HandlerOptions{
			AddSource: opts.AddSource,
			Level:     level,
		})
	default:
		handler = slog.NewJSONHandler(opts.Output, &slog.HandlerOptions{
			AddSource:   opts.AddSource,
			Level:       level,
			ReplaceAttr: renameTime,
		})
	}

	return &SlogLogger{logger: slog.New(handler), level: level}
}

// NewSlog creates a slog based logger writing to stdout.
func NewSlog(level Level, addSource bool) Logger {
	return New(Options{Level: level, AddSource: addSource})
}

// NewSlogWriter creates a slog based logger writing to w in FormatAuto.
func NewSlogWriter(w io.Writer, level Level, addSource bool) *SlogLogger {
	return New(Options{Output: w, Level: level, AddSource: addSource})
}

func renameTime(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey {
		a.Key = "ts"
	}
	return a
}

func (l *SlogLogger) Debug(msg string, keysAndValues ...any) {
	l.log(slog.LevelDebug, msg, keysAndValues)
}

func (l *SlogLogger) Info(msg string, keysAndValues ...any) {
	l.log(slog.LevelInfo, msg, keysAndValues)
}

func (l *SlogLogger) Warn(msg string, keysAndValues ...any) {
	l.log(slog.LevelWarn, msg, keysAndValues)
}

func (l *SlogLogger) Error(msg string, keysAndValues ...any) {
	l.log(slog.LevelError, msg, keysAndValues)
}

func (l *SlogLogger) Fatal(msg string, keysAndValues ...any) {
	l.log(slog.LevelError, msg, keysAndValues)
	os.Exit(1)
}

func (l *SlogLogger) With(keyValues ...any) Logger {
	return &SlogLogger{logger: l.logger.With(keyValues...), level: l.level}
}

func (l *SlogLogger) Level() Level {
	lv := l.level.Level()
	for i := len(slogLevels) - 1; i >= 0; i-- {
		if lv >= slogLevels[i] {
			return Level(i) + DebugLevel
		}
	}
	return DebugLevel
}

func (l *SlogLogger) SetLevel(level Level) {
	l.level.Set(toSlogLevel(level))
}

// log must be called directly by an exported method: the source position
// is taken a fixed number of frames up.
func (l *SlogLogger) log(level slog.Level, msg string, args []any) {
	ctx := context.Background()
	if !l.logger.Enabled(ctx, level) {
		return
	}

	var pcs [1]uintptr
	runtime.Callers(3, pcs[:])
	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	r.Add(args...)
	_ = l.logger.Handler().Handle(ctx, r)
}

// slogLevels maps DebugLevel..FatalLevel; fatal records are logged at error.
var slogLevels = [...]slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError}

func toSlogLevel(level Level) slog.Level {
	i := int(level - DebugLevel)
	if i < 0 {
		i = 0
	}
	if i >= len(slogLevels) {
		i = len(slogLevels) - 1
	}
	return slogLevels[i]
}
