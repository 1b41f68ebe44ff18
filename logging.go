package volcast

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync/atomic"
)

// Logger is the leveled logger the mapper and the demo write through.
type Logger interface {
	DebugEnabled() bool
	SetDebug(enabled bool)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	// Named returns a logger whose lines carry name after the current prefix.
	Named(name string) Logger
}

// DefaultLogger writes debug and info lines to one writer, warnings and
// errors to another. Loggers derived with Named share the outputs and the
// debug switch.
type DefaultLogger struct {
	debug  *atomic.Bool
	prefix string
	out    *log.Logger
	err    *log.Logger
}

func NewDefaultLogger(prefix string, debug bool) *DefaultLogger {
	return NewLoggerTo(os.Stdout, os.Stderr, prefix, debug)
}

func NewLoggerTo(out, errOut io.Writer, prefix string, debug bool) *DefaultLogger {
	flags := log.LstdFlags | log.Lmicroseconds
	l := &DefaultLogger{
		debug:  new(atomic.Bool),
		prefix: prefix,
		out:    log.New(out, "", flags),
		err:    log.New(errOut, "", flags),
	}
	l.debug.Store(debug)
	return l
}

func (l *DefaultLogger) DebugEnabled() bool    { return l.debug.Load() }
func (l *DefaultLogger) SetDebug(enabled bool) { l.debug.Store(enabled) }

func (l *DefaultLogger) Named(name string) Logger {
	child := *l
	if child.prefix == "" {
		child.prefix = name
	} else {
		child.prefix += "/" + name
	}
	return &child
}

func (l *DefaultLogger) emit(dst *log.Logger, level, format string, args []any) {
	msg := fmt.Sprintf(format, args...)
	if l.prefix == "" {
		dst.Printf("%s: %s", level, msg)
		return
	}
	dst.Printf("[%s] %s: %s", l.prefix, level, msg)
}

func (l *DefaultLogger) Debugf(format string, args ...any) {
	if l.DebugEnabled() {
		l.emit(l.out, "DEBUG", format, args)
	}
}

func (l *DefaultLogger) Infof(format string, args ...any)  { l.emit(l.out, "INFO", format, args) }
func (l *DefaultLogger) Warnf(format string, args ...any)  { l.emit(l.err, "WARN", format, args) }
func (l *DefaultLogger) Errorf(format string, args ...any) { l.emit(l.err, "ERROR", format, args) }

type nopLogger struct{}

func NewNopLogger() Logger { return nopLogger{} }

func (nopLogger) DebugEnabled() bool    { return false }
func (nopLogger) SetDebug(bool)         {}
func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}
func (n nopLogger) Named(string) Logger { return n }

func orNop(l Logger) Logger {
	if l == nil {
		return NewNopLogger()
	}
	return l
}
