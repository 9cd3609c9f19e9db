package compute

import (
	"context"
	"testing"

	"github.com/galaxyproject/gxrunner/config"
	"github.com/galaxyproject/gxrunner/drm/local"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalBackendEchoHi(t *testing.T) {
	ctx := context.Background()
	conf := testConfig(t)
	conf.DefaultDestination = "local:///"

	r, err := NewRunner(conf, local.NewOpener(config.Local{}), testLogger())
	require.NoError(t, err)
	defer func() {
		r.Shutdown()
		r.Wait()
	}()

	w := newFakeWrapper("1", "echo hi")
	w.workdir = conf.WorkDir
	require.NoError(t, r.Submit(ctx, w))
	waitTerminal(t, w)

	c := w.snapshot()
	assert.Equal(t, 1, c.finished)
	assert.Equal(t, 0, c.failed)
	assert.Equal(t, "hi\n", c.stdout)
	assert.LessOrEqual(t, c.running, 1)
}

func TestLocalBackendFailure(t *testing.T) {
	ctx := context.Background()
	conf := testConfig(t)
	conf.DefaultDestination = "local:///"

	r, err := NewRunner(conf, local.NewOpener(config.Local{}), testLogger())
	require.NoError(t, err)
	defer func() {
		r.Shutdown()
		r.Wait()
	}()

	w := newFakeWrapper("1", "echo oops >&2; exit 3")
	require.NoError(t, r.Submit(ctx, w))
	waitTerminal(t, w)

	c := w.snapshot()
	assert.Equal(t, 1, c.failed)
	assert.Equal(t, ClusterFailMessage, c.failMsg)
}
