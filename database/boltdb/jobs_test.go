package boltdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/galaxyproject/gxrunner/config"
	"github.com/galaxyproject/gxrunner/job"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *BoltDB {
	db, err := NewBoltDB(config.BoltDB{Path: filepath.Join(t.TempDir(), "sub", "test.db")})
	require.NoError(t, err)
	require.NoError(t, db.Init())
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPutGetJob(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	rec := &job.Record{ID: "1", Kind: job.Tool, State: job.Queued, ExternalID: "99"}
	require.NoError(t, db.PutJob(ctx, rec))

	got, err := db.GetJob(ctx, rec.Key())
	require.NoError(t, err)
	assert.Equal(t, "99", got.ExternalID)
	assert.Equal(t, job.Queued, got.State)

	_, err = db.GetJob(ctx, job.Key(job.Tool, "missing"))
	assert.Equal(t, job.ErrNotFound, err)
}

func TestListJobsByState(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for _, r := range []*job.Record{
		{ID: "a", State: job.New},
		{ID: "b", State: job.Queued},
		{ID: "c", State: job.Running},
		{ID: "d", State: job.OK},
	} {
		require.NoError(t, db.PutJob(ctx, r))
	}

	active, err := db.ListJobs(ctx, job.Queued, job.Running)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "b", active[0].ID)
	assert.Equal(t, "c", active[1].ID)

	// state index follows updates
	require.NoError(t, db.PutJob(ctx, &job.Record{ID: "b", State: job.OK}))
	active, err = db.ListJobs(ctx, job.Queued, job.Running)
	require.NoError(t, err)
	require.Len(t, active, 1)

	all, err := db.ListJobs(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestPutJobRequiresID(t *testing.T) {
	db := newTestDB(t)
	assert.Error(t, db.PutJob(context.Background(), &job.Record{}))
}
