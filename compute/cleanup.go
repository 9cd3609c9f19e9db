package compute

import (
	"os"

	"github.com/galaxyproject/gxrunner/logger"
)

// CleanupPolicy decides whether transient per-job files (stdout and stderr
// captures, submission scripts) are deleted once a job completes.
type CleanupPolicy struct {
	// Debug keeps every file.
	Debug bool
	Log   *logger.Logger
}

// Apply deletes every existing path, unless Debug is set. Failures are
// logged; a missing file is not an error.
func (p CleanupPolicy) Apply(paths ...string) {
	if p.Debug {
		return
	}
	for _, path := range paths {
		if path == "" {
			continue
		}
		err := os.Remove(path)
		if err != nil && !os.IsNotExist(err) {
			p.Log.Error("unable to cleanup job file", "path", path, "error", err)
		}
	}
}
