// Package badger contains a job store backed by the Badger embedded database.
package badger

import (
	"fmt"

	badger "github.com/dgraph-io/badger/v2"
	"github.com/galaxyproject/gxrunner/config"
	"github.com/galaxyproject/gxrunner/util/fsutil"
)

// Badger stores job records in a Badger database.
type Badger struct {
	db *badger.DB
}

// NewBadger creates a new database instance.
func NewBadger(conf config.Badger) (*Badger, error) {
	err := fsutil.EnsureDir(conf.Path)
	if err != nil {
		return nil, fmt.Errorf("creating database directory: %s", err)
	}
	opts := badger.DefaultOptions(conf.Path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening database: %s", err)
	}
	return &Badger{db: db}, nil
}

// Init initializes the database.
func (db *Badger) Init() error {
	return nil
}

// Close closes the database.
func (db *Badger) Close() error {
	return db.db.Close()
}

var jobKeyPrefix = []byte("jobs/")

func jobKey(key string) []byte {
	kb := []byte(key)
	out := make([]byte, 0, len(jobKeyPrefix)+len(kb))
	out = append(out, jobKeyPrefix...)
	out = append(out, kb...)
	return out
}
