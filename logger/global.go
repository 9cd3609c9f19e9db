package logger

// root is the process-wide logger. Commands configure it once from the
// config file and derive one namespaced sub-logger per component.
var root = New("gxrunner")

// Configure applies conf to the process-wide logger and every sub-logger
// derived from it.
func Configure(c Config) {
	root.Configure(c)
}

// NewSubLogger returns a logger for one component, e.g. "monitor",
// sharing the process-wide output and level.
func NewSubLogger(ns string, args ...interface{}) *Logger {
	return root.NewSubLogger(ns, args...)
}
