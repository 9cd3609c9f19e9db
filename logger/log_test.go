package logger

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func jsonLogger(ns string, args ...interface{}) (*Logger, *bytes.Buffer) {
	l := New(ns, args...)
	c := DefaultConfig()
	c.Formatter = "json"
	c.JSONFormat.DisableTimestamp = true
	l.Configure(c)

	var b bytes.Buffer
	l.SetOutput(&b)
	return l, &b
}

func TestLog(t *testing.T) {
	l, b := jsonLogger("foons", "basearg", 1)
	l.Info("test")

	expect := `{"basearg":1,"level":"info","message":"test","ns":"foons"}` + "\n"
	assert.Equal(t, expect, b.String())
}

func TestErrorShortcut(t *testing.T) {
	l, b := jsonLogger("foons")
	l.Error("failed", errors.New("boom"))

	expect := `{"error":"boom","level":"error","message":"failed","ns":"foons"}` + "\n"
	assert.Equal(t, expect, b.String())
}

func TestSubLoggerSharesOutput(t *testing.T) {
	l, b := jsonLogger("parent")
	sub := l.NewSubLogger("child", "job", "42")
	sub.Info("hello")

	expect := `{"job":"42","level":"info","message":"hello","ns":"child"}` + "\n"
	assert.Equal(t, expect, b.String())
}

func TestLevelFilter(t *testing.T) {
	l, b := jsonLogger("foons")
	l.SetLevel("error")
	l.Debug("hidden")
	l.Info("hidden")
	assert.Empty(t, b.String())
}

func TestOddFields(t *testing.T) {
	l, b := jsonLogger("foons")
	l.Info("odd", "key", 1, "dangling")
	assert.Contains(t, b.String(), `"unknown":"dangling"`)
}

func TestNilLogger(t *testing.T) {
	var l *Logger
	l.Info("ignored")
	l.Error("ignored", errors.New("x"))
	assert.Nil(t, l.WithFields("a", 1))
}
