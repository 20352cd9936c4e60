package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Options configures a Logger.
type Options struct {
	// Name is the logger name printed on every line.
	Name string
	// Level is one of debug, info, warn, error.
	Level string
	// File is the append-mode log file. Empty disables the file sink.
	File string
	// Stderr mirrors every line to standard error.
	Stderr bool
	// Output overrides File and Stderr when set.
	Output io.Writer
}

// Logger is a slog.Logger bound to its sinks and level.
type Logger struct {
	*slog.Logger
	levelVar *slog.LevelVar
	file     *os.File
}

// New builds a Logger. Standard output is never used as a sink because it
// carries protocol traffic.
func New(opts Options) (*Logger, error) {
	levelVar := &slog.LevelVar{}
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	levelVar.Set(level)

	l := &Logger{levelVar: levelVar}

	var writers []io.Writer
	switch {
	case opts.Output != nil:
		writers = append(writers, opts.Output)
	default:
		if opts.File != "" {
			if dir := filepath.Dir(opts.File); dir != "." && dir != "/" {
				if err := os.MkdirAll(dir, 0755); err != nil {
					return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
				}
			}
			f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
			if err != nil {
				return nil, fmt.Errorf("failed to open log file %s: %w", opts.File, err)
			}
			l.file = f
			writers = append(writers, f)
		}
		if opts.Stderr {
			writers = append(writers, os.Stderr)
		}
	}

	var out io.Writer = io.Discard
	switch len(writers) {
	case 0:
	case 1:
		out = writers[0]
	default:
		out = io.MultiWriter(writers...)
	}

	name := opts.Name
	if name == "" {
		name = "calc"
	}
	l.Logger = slog.New(NewLineHandler(out, name, levelVar))
	return l, nil
}

// Discard returns a Logger that drops everything.
func Discard() *Logger {
	l, _ := New(Options{Output: io.Discard})
	return l
}

func (l *Logger) SetLevel(level slog.Level) { l.levelVar.Set(level) }

func (l *Logger) SetDebug(enabled bool) {
	if enabled {
		l.SetLevel(slog.LevelDebug)
	} else {
		l.SetLevel(slog.LevelInfo)
	}
}

func (l *Logger) IsDebug() bool { return l.levelVar.Level() == slog.LevelDebug }

func (l *Logger) WithModule(module string) *slog.Logger {
	return l.Logger.With(slog.String("module", module))
}

// Format-style Logging
func (l *Logger) Debugf(format string, args ...any) { l.Debug(fmt.Sprintf(format, args...)) }
func (l *Logger) Infof(format string, args ...any)  { l.Info(fmt.Sprintf(format, args...)) }
func (l *Logger) Warnf(format string, args ...any)  { l.Warn(fmt.Sprintf(format, args...)) }
func (l *Logger) Errf(format string, args ...any)   { l.Error(fmt.Sprintf(format, args...)) }

// Close releases the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// ParseLevel maps a config level name to a slog.Level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level: %s", s)
	}
}
