package config

import (
	"os"
	"path"
	"time"

	"github.com/galaxyproject/gxrunner/logger"
)

// DefaultConfig returns configuration with simple defaults.
func DefaultConfig() Config {
	cwd, _ := os.Getwd()
	workDir := path.Join(cwd, "gxrunner-work-dir")

	return Config{
		Runner: Runner{
			WorkDir:            workDir,
			ScriptPrefix:       "galaxy",
			LibraryPathVar:     "PYTHONPATH",
			MonitorRate:        Duration(time.Second),
			QueueSize:          1000,
			Workers:            4,
			DefaultDestination: "local:///",
		},
		Backend: "local",
		GridEngine: HPC{
			SubmitCmd:  "qsub",
			StatusCmd:  "qstat",
			HistoryCmd: "qacct",
			CancelCmd:  "qdel",
		},
		Slurm: HPC{
			SubmitCmd:  "sbatch",
			StatusCmd:  "squeue",
			HistoryCmd: "sacct",
			CancelCmd:  "scancel",
		},
		PBS: HPC{
			SubmitCmd: "qsub",
			StatusCmd: "qstat",
			CancelCmd: "qdel",
		},
		HTCondor: HPC{
			SubmitCmd:  "condor_submit",
			StatusCmd:  "condor_q",
			HistoryCmd: "condor_history",
			CancelCmd:  "condor_rm",
		},
		Local: Local{
			Shell: "/bin/sh",
		},
		Database: "boltdb",
		BoltDB: BoltDB{
			Path: path.Join(workDir, "gxrunner.db"),
		},
		Badger: Badger{
			Path: path.Join(workDir, "gxrunner.badger"),
		},
		Logger: logger.DefaultConfig(),
	}
}
