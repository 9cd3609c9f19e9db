// Package config contains the gxrunner configuration model, its defaults
// and its YAML parsing.
package config

import (
	"fmt"

	"github.com/galaxyproject/gxrunner/logger"
	multierror "github.com/hashicorp/go-multierror"
)

// Config describes configuration for gxrunner.
type Config struct {
	Runner Runner
	// the active scheduler backend
	Backend    string
	GridEngine HPC
	Slurm      HPC
	PBS        HPC
	HTCondor   HPC
	Local      Local
	// the active job store
	Database string
	BoltDB   BoltDB
	Badger   Badger
	Logger   logger.Config
	Metrics  Metrics
}

// Runner describes configuration for the cluster job runner.
type Runner struct {
	// Directory where per-job scripts and stdout/stderr captures are written.
	WorkDir string
	// Prefix of generated submission scripts: {prefix}_{id}.sh
	ScriptPrefix string
	// Library path exported into submission scripts, if set.
	LibraryPath string
	// Environment variable the library path is prepended to.
	LibraryPathVar string
	// Keep transient per-job files after completion.
	Debug bool
	// How long the monitor loop sleeps between status scans.
	MonitorRate Duration
	// Maximum status queries per second. Zero disables limiting.
	PollRate float64
	// Capacity of the hand-off queue feeding the monitor loop.
	QueueSize int
	// Number of workers serving asynchronous submissions.
	Workers int
	// Destination used when a job doesn't name one.
	DefaultDestination string
}

// HPC describes the commands used to drive a command-line batch scheduler.
// Commands may include arguments, e.g. "qsub -V".
type HPC struct {
	SubmitCmd  string
	StatusCmd  string
	HistoryCmd string
	CancelCmd  string
}

// Local describes configuration for the local process backend.
type Local struct {
	Shell string
}

// BoltDB describes configuration for the BoltDB job store.
type BoltDB struct {
	Path string
}

// Badger describes configuration for the Badger job store.
type Badger struct {
	Path string
}

// Metrics describes configuration for the prometheus endpoint.
type Metrics struct {
	// Address to serve /metrics on. Empty disables the endpoint.
	Addr string
}

var backends = map[string]bool{
	"gridengine": true,
	"slurm":      true,
	"pbs":        true,
	"htcondor":   true,
	"local":      true,
}

var databases = map[string]bool{
	"boltdb": true,
	"badger": true,
}

// Validate checks the configuration for values the runner can't work with.
func (c Config) Validate() error {
	var result *multierror.Error

	if !backends[c.Backend] {
		result = multierror.Append(result, fmt.Errorf("unknown backend %q", c.Backend))
	}
	if !databases[c.Database] {
		result = multierror.Append(result, fmt.Errorf("unknown database %q", c.Database))
	}
	if c.Runner.WorkDir == "" {
		result = multierror.Append(result, fmt.Errorf("Runner.WorkDir must be set"))
	}
	if c.Runner.MonitorRate <= 0 {
		result = multierror.Append(result, fmt.Errorf("Runner.MonitorRate must be positive"))
	}
	if c.Runner.PollRate < 0 {
		result = multierror.Append(result, fmt.Errorf("Runner.PollRate must not be negative"))
	}
	if c.Runner.QueueSize <= 0 {
		result = multierror.Append(result, fmt.Errorf("Runner.QueueSize must be positive"))
	}
	if c.Runner.Workers <= 0 {
		result = multierror.Append(result, fmt.Errorf("Runner.Workers must be positive"))
	}
	return result.ErrorOrNil()
}
