package boltdb

import (
	"context"
	"fmt"

	"github.com/boltdb/bolt"
	"github.com/galaxyproject/gxrunner/database"
	"github.com/galaxyproject/gxrunner/job"
)

// GetJob gets a job record by key.
func (b *BoltDB) GetJob(ctx context.Context, key string) (*job.Record, error) {
	var rec *job.Record
	err := b.db.View(func(tx *bolt.Tx) error {
		r, err := loadJob(tx, key)
		rec = r
		return err
	})
	return rec, err
}

// PutJob writes a job record and updates the state index.
func (b *BoltDB) PutJob(ctx context.Context, r *job.Record) error {
	if r.ID == "" {
		return fmt.Errorf("job record has no ID")
	}
	v, err := database.Marshal(r)
	if err != nil {
		return err
	}
	key := []byte(r.Key())
	return b.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(JobBucket).Put(key, v); err != nil {
			return err
		}
		return tx.Bucket(JobState).Put(key, []byte(r.State))
	})
}

// ListJobs returns the records in any of the given states.
func (b *BoltDB) ListJobs(ctx context.Context, states ...job.State) ([]*job.Record, error) {
	match := database.StateFilter(states...)
	var out []*job.Record

	err := b.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(JobState).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if !match(job.State(v)) {
				continue
			}
			r, err := loadJob(tx, string(k))
			if err != nil {
				return err
			}
			out = append(out, r)
		}
		return nil
	})
	return out, err
}

func loadJob(tx *bolt.Tx, key string) (*job.Record, error) {
	v := tx.Bucket(JobBucket).Get([]byte(key))
	if v == nil {
		return nil, job.ErrNotFound
	}
	return database.Unmarshal(v)
}
