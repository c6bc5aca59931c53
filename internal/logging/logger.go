// Package logging provides the leveled console logger used by every mode.
//
// It keeps a printf-style API (Info, Success, Warn, Error, Debug) on top of
// zerolog. Console output goes through a zerolog.ConsoleWriter with
// "[LEVEL]" tags colored from package term; errors go to stderr. With
// --log the output is appended to a file instead, uncolored and tagged with
// a per-run id.
package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/backmassage/ffconvert/internal/config"
	"github.com/backmassage/ffconvert/internal/term"
)

// TimeFormat is the timestamp layout of every log line.
const TimeFormat = "2006-01-02 15:04:05"

const levelSuccess = "success"

// Logger writes leveled log lines. Child loggers made with With share the
// parent's sink.
type Logger struct {
	zl   zerolog.Logger
	file *os.File
}

// Options configures New.
type Options struct {
	Out     io.Writer // info and below
	Err     io.Writer // errors; nil means Out
	Color   bool
	Verbose bool
}

// New builds a console logger on the given writers. Writes are serialized,
// so one Logger may be shared by concurrent workers.
func New(opts Options) *Logger {
	out := zerolog.SyncWriter(opts.Out)
	errOut := out
	if opts.Err != nil {
		errOut = zerolog.SyncWriter(opts.Err)
	}
	w := levelSplit{
		out: consoleWriter(out, opts.Color),
		err: consoleWriter(errOut, opts.Color),
	}
	return &Logger{zl: zerolog.New(w).Level(level(opts.Verbose)).With().Timestamp().Logger()}
}

// NewLogger configures colors from cfg and opens the --log file when set.
// Call Close when done.
func NewLogger(cfg *config.Config) (*Logger, error) {
	if cfg.LogFile == "" {
		color := term.Configure(cfg.ColorMode)
		return New(Options{Out: os.Stdout, Err: os.Stderr, Color: color, Verbose: cfg.Verbose}), nil
	}
	term.Configure(config.ColorNever)

	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	l := New(Options{Out: f, Verbose: cfg.Verbose})
	l.zl = l.zl.With().Str("run", uuid.NewString()).Logger()
	l.file = f
	return l, nil
}

// Close closes the log file if one was opened.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// With returns a child logger that adds key=value to every line.
func (l *Logger) With(key, value string) *Logger {
	return &Logger{zl: l.zl.With().Str(key, value).Logger()}
}

// InfoWriter returns a writer that logs every complete line written to it
// at info level. Used to send tables to the --log file.
func (l *Logger) InfoWriter() io.Writer {
	return &lineWriter{log: l}
}

type lineWriter struct {
	log *Logger
	buf []byte
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.log.Info("%s", strings.TrimRight(string(w.buf[:i]), " "))
		w.buf = w.buf[i+1:]
	}
	return len(p), nil
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.zl.Info().Msg(fmt.Sprintf(format, args...))
}

// Success logs a completed step. It is not filtered by level.
func (l *Logger) Success(format string, args ...interface{}) {
	l.zl.Log().Str(zerolog.LevelFieldName, levelSuccess).Msg(fmt.Sprintf(format, args...))
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.zl.Warn().Msg(fmt.Sprintf(format, args...))
}

// Error logs to the error writer (stderr on the console).
func (l *Logger) Error(format string, args ...interface{}) {
	l.zl.Error().Msg(fmt.Sprintf(format, args...))
}

// Debug logs only in verbose mode.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.zl.Debug().Msg(fmt.Sprintf(format, args...))
}

func level(verbose bool) zerolog.Level {
	if verbose {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}

func consoleWriter(out io.Writer, color bool) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:         out,
		NoColor:     !color,
		TimeFormat:  TimeFormat,
		FormatLevel: formatLevel(color),
	}
}

// formatLevel renders "[INFO]", "[SUCCESS]" and friends.
func formatLevel(color bool) zerolog.Formatter {
	return func(i interface{}) string {
		name, _ := i.(string)
		tag := "[" + strings.ToUpper(name) + "]"
		if !color {
			return tag
		}
		return levelColor(name) + tag + term.NC
	}
}

func levelColor(name string) string {
	switch name {
	case zerolog.LevelDebugValue:
		return term.Cyan
	case zerolog.LevelInfoValue:
		return term.Blue
	case levelSuccess:
		return term.Green
	case zerolog.LevelWarnValue:
		return term.Yellow
	case zerolog.LevelErrorValue, zerolog.LevelFatalValue:
		return term.Red
	}
	return term.Magenta
}

// levelSplit routes error lines to a separate writer.
type levelSplit struct {
	out, err io.Writer
}

func (w levelSplit) Write(p []byte) (int, error) {
	return w.out.Write(p)
}

func (w levelSplit) WriteLevel(lvl zerolog.Level, p []byte) (int, error) {
	if lvl >= zerolog.ErrorLevel && lvl != zerolog.NoLevel {
		return w.err.Write(p)
	}
	return w.out.Write(p)
}
