package job

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/galaxyproject/gxrunner/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu      sync.Mutex
	jobs    map[string]Record
	failPut int
}

func newMemStore() *memStore {
	return &memStore{jobs: map[string]Record{}}
}

func (m *memStore) GetJob(ctx context.Context, key string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.jobs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (m *memStore) PutJob(ctx context.Context, r *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPut > 0 {
		m.failPut--
		return errors.New("database is locked")
	}
	m.jobs[r.Key()] = *r
	return nil
}

func (m *memStore) ListJobs(ctx context.Context, states ...State) ([]*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for k := range m.jobs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var out []*Record
	for _, k := range keys {
		r := m.jobs[k]
		out = append(out, &r)
	}
	return out, nil
}

func (m *memStore) Close() error { return nil }

func testLogger() *logger.Logger {
	l := logger.New("test")
	l.Discard()
	return l
}

func TestParseState(t *testing.T) {
	s, err := ParseState("running")
	require.NoError(t, err)
	assert.Equal(t, Running, s)
	assert.False(t, s.Terminal())
	assert.True(t, OK.Terminal())

	_, err = ParseState("bogus")
	assert.Error(t, err)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "tool/1", Key("", "1"))
	assert.Equal(t, "set_metadata/1", Key(SetMetadata, "1"))
}

func TestStoreWrapperLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	rec := &Record{ID: "1", State: New, CommandLine: "echo hi", WorkDir: filepath.Join(t.TempDir(), "wd")}
	require.NoError(t, store.PutJob(ctx, rec))

	w := NewStoreWrapper(rec, store, testLogger())
	require.NoError(t, w.Prepare(ctx))
	_, err := os.Stat(rec.WorkDir)
	require.NoError(t, err)

	require.NoError(t, w.SetRunner(ctx, "local:///", "123"))
	require.NoError(t, w.ChangeState(ctx, Queued))
	require.NoError(t, w.ChangeState(ctx, Running))
	require.NoError(t, w.Finish(ctx, "hi\n", ""))

	got, err := store.GetJob(ctx, rec.Key())
	require.NoError(t, err)
	assert.Equal(t, OK, got.State)
	assert.Equal(t, "hi\n", got.Stdout)
	assert.Equal(t, "123", got.ExternalID)
	assert.Equal(t, "local:///", got.DestinationURL)

	// terminal states are final
	assert.Error(t, w.ChangeState(ctx, Running))
}

func TestStoreWrapperPrepareRejectsBadQuoting(t *testing.T) {
	store := newMemStore()
	w := NewStoreWrapper(&Record{ID: "1", CommandLine: `echo "unterminated`}, store, testLogger())
	assert.Error(t, w.Prepare(context.Background()))
}

func TestStoreWrapperSeesOwnerDeletion(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	rec := &Record{ID: "1", State: New}
	require.NoError(t, store.PutJob(ctx, rec))
	w := NewStoreWrapper(rec, store, testLogger())

	require.NoError(t, store.PutJob(ctx, &Record{ID: "1", State: Deleted}))
	assert.Equal(t, Deleted, w.State())
}

func TestStoreWrapperFail(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	w := NewStoreWrapper(&Record{ID: "1", State: Running}, store, testLogger())

	w.Fail(ctx, "Cluster could not complete job", errors.New("qstat exploded"))
	got, err := store.GetJob(ctx, Key(Tool, "1"))
	require.NoError(t, err)
	assert.Equal(t, Error, got.State)
	assert.Equal(t, "Cluster could not complete job", got.Info)
}

func TestStoreWrapperRetriesWrites(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.failPut = 2
	w := NewStoreWrapper(&Record{ID: "1", State: New}, store, testLogger())

	require.NoError(t, w.ChangeState(ctx, Queued))
	assert.Equal(t, Queued, w.Record().State)
}

func TestStoreWrapperCleanup(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "wd")
	require.NoError(t, os.MkdirAll(dir, 0755))
	w := NewStoreWrapper(&Record{ID: "1", WorkDir: dir}, newMemStore(), testLogger())

	w.Cleanup(context.Background())
	_, err := os.Stat(dir)
	assert.NoError(t, err)

	w.CleanupWorkDir = true
	w.Cleanup(context.Background())
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestStoreWrapperDeletedStaysDeleted(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	rec := &Record{ID: "1", State: Running, ExternalID: "42"}
	require.NoError(t, store.PutJob(ctx, rec))
	w := NewStoreWrapper(rec, store, testLogger())

	// the owner deletes the job while it runs
	require.NoError(t, store.PutJob(ctx, &Record{ID: "1", State: Deleted, ExternalID: "42"}))

	require.NoError(t, w.Finish(ctx, "partial", ""))
	w.Fail(ctx, "Cluster could not complete job", nil)

	got, err := store.GetJob(ctx, rec.Key())
	require.NoError(t, err)
	assert.Equal(t, Deleted, got.State)
	assert.Equal(t, "", got.Stdout)
	assert.Equal(t, "42", got.ExternalID)
}
