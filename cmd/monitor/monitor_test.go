package monitor

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/galaxyproject/gxrunner/cmd/util"
	"github.com/galaxyproject/gxrunner/config"
	"github.com/galaxyproject/gxrunner/job"
	"github.com/galaxyproject/gxrunner/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) config.Config {
	dir := t.TempDir()
	conf := config.DefaultConfig()
	conf.Runner.WorkDir = filepath.Join(dir, "work")
	conf.Runner.MonitorRate = config.Duration(10 * time.Millisecond)
	conf.BoltDB.Path = filepath.Join(dir, "gxrunner.db")
	conf.Logger = logger.DebugConfig()
	conf.Logger.OutputFile = filepath.Join(dir, "log.txt")
	return conf
}

func putJobs(t *testing.T, conf config.Config, recs ...*job.Record) {
	store, err := util.NewStore(conf)
	require.NoError(t, err)
	defer store.Close()
	for _, rec := range recs {
		require.NoError(t, store.PutJob(context.Background(), rec))
	}
}

func TestMonitorRunsNewJobs(t *testing.T) {
	conf := testConfig(t)
	workdir := filepath.Join(conf.Runner.WorkDir, "jobs")
	putJobs(t, conf,
		&job.Record{ID: "a", State: job.New, CommandLine: "echo a", WorkDir: workdir},
		&job.Record{ID: "b", State: job.New, CommandLine: "echo b >&2; exit 2", WorkDir: workdir},
		&job.Record{ID: "c", State: job.OK, CommandLine: "echo c"},
		&job.Record{ID: "d", State: job.Queued},
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, Run(ctx, conf))

	store, err := util.NewStore(conf)
	require.NoError(t, err)
	defer store.Close()

	a, err := store.GetJob(ctx, job.Key(job.Tool, "a"))
	require.NoError(t, err)
	assert.Equal(t, job.OK, a.State)
	assert.Equal(t, "a\n", a.Stdout)

	b, err := store.GetJob(ctx, job.Key(job.Tool, "b"))
	require.NoError(t, err)
	assert.Equal(t, job.Error, b.State)
	assert.Equal(t, "Cluster could not complete job", b.Info)

	// queued without an external id: nothing to recover
	d, err := store.GetJob(ctx, job.Key(job.Tool, "d"))
	require.NoError(t, err)
	assert.Equal(t, job.Queued, d.State)
}

func TestMonitorRecoversVanishedJob(t *testing.T) {
	conf := testConfig(t)
	// a pid which can't exist
	putJobs(t, conf,
		&job.Record{ID: "r", State: job.Running, ExternalID: "2147483000", DestinationURL: "local:///"},
		&job.Record{ID: "x", State: job.Deleted, ExternalID: "2147483001"},
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, Run(ctx, conf))

	store, err := util.NewStore(conf)
	require.NoError(t, err)
	defer store.Close()

	// no output was left behind
	r, err := store.GetJob(ctx, job.Key(job.Tool, "r"))
	require.NoError(t, err)
	assert.Equal(t, job.Error, r.State)

	x, err := store.GetJob(ctx, job.Key(job.Tool, "x"))
	require.NoError(t, err)
	assert.Equal(t, job.Deleted, x.State)
}

func TestMonitorStopsOnCancel(t *testing.T) {
	conf := testConfig(t)
	putJobs(t, conf, &job.Record{ID: "slow", State: job.New, CommandLine: "sleep 5"})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(200 * time.Millisecond)
		cancel()
	}()
	err := Run(ctx, conf)
	assert.ErrorIs(t, err, context.Canceled)

	store, err := util.NewStore(conf)
	require.NoError(t, err)
	defer store.Close()
	rec, err := store.GetJob(context.Background(), job.Key(job.Tool, "slow"))
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ExternalID)
	assert.Contains(t, []job.State{job.Queued, job.Running}, rec.State)
}
