package util

import (
	"fmt"
	"strings"

	"github.com/galaxyproject/gxrunner/config"
	"github.com/galaxyproject/gxrunner/database/badger"
	"github.com/galaxyproject/gxrunner/database/boltdb"
	"github.com/galaxyproject/gxrunner/drm"
	"github.com/galaxyproject/gxrunner/drm/gridengine"
	"github.com/galaxyproject/gxrunner/drm/htcondor"
	"github.com/galaxyproject/gxrunner/drm/local"
	"github.com/galaxyproject/gxrunner/drm/pbs"
	"github.com/galaxyproject/gxrunner/drm/slurm"
	"github.com/galaxyproject/gxrunner/job"
)

// NewOpener returns the session opener of the configured scheduler backend.
func NewOpener(conf config.Config) (drm.Opener, error) {
	switch strings.ToLower(conf.Backend) {
	case "gridengine":
		return gridengine.NewOpener(conf.GridEngine), nil
	case "slurm":
		return slurm.NewOpener(conf.Slurm), nil
	case "pbs":
		return pbs.NewOpener(conf.PBS), nil
	case "htcondor":
		return htcondor.NewOpener(conf.HTCondor), nil
	case "local":
		return local.NewOpener(conf.Local), nil
	}
	return nil, fmt.Errorf("unknown backend: %q", conf.Backend)
}

// NewStore opens the configured job store.
func NewStore(conf config.Config) (job.Store, error) {
	switch strings.ToLower(conf.Database) {
	case "boltdb":
		db, err := boltdb.NewBoltDB(conf.BoltDB)
		if err != nil {
			return nil, fmt.Errorf("opening boltdb: %v", err)
		}
		if err := db.Init(); err != nil {
			db.Close()
			return nil, fmt.Errorf("initializing boltdb: %v", err)
		}
		return db, nil
	case "badger":
		db, err := badger.NewBadger(conf.Badger)
		if err != nil {
			return nil, fmt.Errorf("opening badger: %v", err)
		}
		return db, nil
	}
	return nil, fmt.Errorf("unknown database: %q", conf.Database)
}
