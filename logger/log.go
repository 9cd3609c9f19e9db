// Package logger provides structured, namespaced logging on top of logrus.
package logger

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"strings"

	"github.com/logrusorgru/aurora"
	"github.com/sirupsen/logrus"
)

// Logger handles structured, leveled logging.
//
// Arguments after the message are key-value pairs which are written as
// structured fields:
//
//	log.Info("Some message here", "key1", value1, "key2", value2)
type Logger struct {
	logrus *logrus.Logger
	entry  *logrus.Entry
}

// New returns a new Logger instance with the given namespace and base fields.
func New(ns string, args ...interface{}) *Logger {
	l := logrus.New()
	f := fields(args...)
	f["ns"] = ns
	log := &Logger{logrus: l, entry: l.WithFields(f)}
	log.Configure(DefaultConfig())
	return log
}

// NewLogger returns a new Logger instance configured with the given Config.
func NewLogger(ns string, conf Config) *Logger {
	l := New(ns)
	l.Configure(conf)
	return l
}

// NewSubLogger returns a new Logger which shares the configuration and
// output of its parent, but has its own namespace and base fields.
func (l *Logger) NewSubLogger(ns string, args ...interface{}) *Logger {
	if l == nil {
		return nil
	}
	f := fields(args...)
	f["ns"] = ns
	return &Logger{logrus: l.logrus, entry: l.logrus.WithFields(f)}
}

// WithFields returns a new Logger instance with the given fields added to all log messages.
func (l *Logger) WithFields(args ...interface{}) *Logger {
	if l == nil {
		return nil
	}
	defer recoverLogErr()
	return &Logger{logrus: l.logrus, entry: l.entry.WithFields(fields(args...))}
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, args ...interface{}) {
	if l == nil {
		return
	}
	defer recoverLogErr()
	l.entry.WithFields(fields(args...)).Debug(msg)
}

// Info logs an info message.
func (l *Logger) Info(msg string, args ...interface{}) {
	if l == nil {
		return
	}
	defer recoverLogErr()
	l.entry.WithFields(fields(args...)).Info(msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...interface{}) {
	if l == nil {
		return
	}
	defer recoverLogErr()
	l.entry.WithFields(fields(args...)).Warn(msg)
}

// Error logs an error message.
//
// Error has a two-argument version that can be used as a shortcut.
//
//	err := startServer()
//	log.Error("Couldn't start server", err)
func (l *Logger) Error(msg string, args ...interface{}) {
	if l == nil {
		return
	}
	defer recoverLogErr()
	var f map[string]interface{}
	if len(args) == 1 {
		f = fields("error", args[0])
	} else {
		f = fields(args...)
	}
	l.entry.WithFields(f).Error(msg)
}

// SetLevel sets the level of logging.
func (l *Logger) SetLevel(lvl string) {
	switch strings.ToLower(lvl) {
	case "debug":
		l.logrus.SetLevel(logrus.DebugLevel)
	case "info":
		l.logrus.SetLevel(logrus.InfoLevel)
	case "warn", "warning":
		l.logrus.SetLevel(logrus.WarnLevel)
	case "error":
		l.logrus.SetLevel(logrus.ErrorLevel)
	default:
		l.logrus.SetLevel(logrus.InfoLevel)
	}
}

// SetFormatter sets the formatter of the logger.
func (l *Logger) SetFormatter(f logrus.Formatter) {
	l.logrus.SetFormatter(f)
}

// SetOutput sets the output of the logger.
func (l *Logger) SetOutput(w io.Writer) {
	l.logrus.SetOutput(w)
}

// Discard configures the logger to discard all logs.
func (l *Logger) Discard() {
	l.SetOutput(ioutil.Discard)
}

// recoverLogErr is used to recover from any panics during logging.
// Panics aren't expected of course, but logging should never crash
// a program, so this failsafe tries to prevent those crashes.
func recoverLogErr() {
	if r := recover(); r != nil {
		fmt.Println("Recovered from logging panic", r)
	}
}

func fields(args ...interface{}) map[string]interface{} {
	f := make(map[string]interface{}, len(args)/2)
	if len(args) == 1 {
		f["unknown"] = args[0]
		return f
	}
	for i := 0; i+1 < len(args); i += 2 {
		k, ok := args[i].(string)
		if !ok {
			k = fmt.Sprint(args[i])
		}
		v := args[i+1]
		if err, ok := v.(error); ok && err != nil {
			v = err.Error()
		}
		f[k] = v
	}
	if len(args)%2 != 0 {
		f["unknown"] = args[len(args)-1]
	}
	return f
}

// PrintSimpleError prints an error to stderr with a red "ERROR:" prefix.
func PrintSimpleError(err error) {
	fmt.Fprintln(os.Stderr, aurora.Red("ERROR:"), err.Error())
}
