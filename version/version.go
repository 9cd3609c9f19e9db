// Package version describes the running gxrunner build. Release builds set
// the variables with -ldflags "-X github.com/galaxyproject/gxrunner/version.Version=...".
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Build details. Version falls back to the module version recorded by
// "go install" when it isn't set at link time.
var (
	Version   = ""
	GitCommit = ""
	BuildDate = ""
)

func version() string {
	if Version != "" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "devel"
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// String returns a one-line summary, e.g.
// "gxrunner 0.3.0 (commit 1a2b3c, built 2024-05-01, go1.22.2)".
func String() string {
	return fmt.Sprintf("gxrunner %s (commit %s, built %s, %s)",
		version(), orUnknown(GitCommit), orUnknown(BuildDate), runtime.Version())
}

// LogFields returns the build details as logger fields, so a monitor's log
// says which build handled the jobs.
func LogFields() []interface{} {
	return []interface{}{
		"version", version(),
		"commit", orUnknown(GitCommit),
		"built", orUnknown(BuildDate),
		"go", runtime.Version(),
	}
}
