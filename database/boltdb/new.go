// Package boltdb contains a job store backed by BoltDB.
package boltdb

import (
	"time"

	"github.com/boltdb/bolt"
	"github.com/galaxyproject/gxrunner/config"
	"github.com/galaxyproject/gxrunner/util/fsutil"
)

// JobBucket defines the name of a bucket which maps
// job key -> encoded job.Record
var JobBucket = []byte("jobs")

// JobState maps: job key -> state string
var JobState = []byte("jobs-state")

// BoltDB stores job records in the BoltDB key-value database.
type BoltDB struct {
	db *bolt.DB
}

// NewBoltDB returns a new instance of BoltDB, accessing the database at
// the given path.
func NewBoltDB(conf config.BoltDB) (*BoltDB, error) {
	err := fsutil.EnsurePath(conf.Path)
	if err != nil {
		return nil, err
	}
	db, err := bolt.Open(conf.Path, 0600, &bolt.Options{
		Timeout: time.Second * 5,
	})
	if err != nil {
		return nil, err
	}
	return &BoltDB{db: db}, nil
}

// Init creates the required BoltDB buckets
func (b *BoltDB) Init() error {
	return b.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{JobBucket, JobState} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close closes the database.
func (b *BoltDB) Close() error {
	return b.db.Close()
}
