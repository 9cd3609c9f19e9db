package badger

import (
	"context"
	"fmt"

	badger "github.com/dgraph-io/badger/v2"
	"github.com/galaxyproject/gxrunner/database"
	"github.com/galaxyproject/gxrunner/job"
)

// GetJob gets a job record by key.
func (db *Badger) GetJob(ctx context.Context, key string) (*job.Record, error) {
	var rec *job.Record
	err := db.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(jobKey(key))
		if err == badger.ErrKeyNotFound {
			return job.ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			r, err := database.Unmarshal(v)
			rec = r
			return err
		})
	})
	return rec, err
}

// PutJob writes a job record.
func (db *Badger) PutJob(ctx context.Context, r *job.Record) error {
	if r.ID == "" {
		return fmt.Errorf("job record has no ID")
	}
	val, err := database.Marshal(r)
	if err != nil {
		return err
	}
	return db.db.Update(func(txn *badger.Txn) error {
		return txn.Set(jobKey(r.Key()), val)
	})
}

// ListJobs returns the records in any of the given states, ordered by key.
func (db *Badger) ListJobs(ctx context.Context, states ...job.State) ([]*job.Record, error) {
	match := database.StateFilter(states...)
	var out []*job.Record

	err := db.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = jobKeyPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var r *job.Record
			err := it.Item().Value(func(v []byte) error {
				var err error
				r, err = database.Unmarshal(v)
				return err
			})
			if err != nil {
				return err
			}
			if match(r.State) {
				out = append(out, r)
			}
		}
		return nil
	})
	return out, err
}
