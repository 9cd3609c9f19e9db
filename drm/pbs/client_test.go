package pbs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/galaxyproject/gxrunner/drm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeTool(t *testing.T, dir, name, body string) drm.Command {
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte("#!/bin/sh\n"+body+"\n"), 0700))
	return drm.Command(p)
}

func qstatXML(state, exit string) string {
	x := `<Data><Job><Job_Id>12.server</Job_Id><job_state>` + state + `</job_state>`
	if exit != "" {
		x += `<exit_status>` + exit + `</exit_status>`
	}
	return x + `</Job></Data>`
}

func TestPollStates(t *testing.T) {
	cases := []struct {
		state, exit string
		expect      drm.Status
	}{
		{"Q", "", drm.QueuedActive},
		{"R", "", drm.Running},
		{"H", "", drm.UserOnHold},
		{"C", "0", drm.Done},
		{"C", "271", drm.Failed},
	}
	for _, c := range cases {
		dir := t.TempDir()
		cl := &Client{Qstat: fakeTool(t, dir, "qstat", "echo '"+qstatXML(c.state, c.exit)+"'")}
		s, err := cl.Poll(context.Background(), "12.server")
		require.NoError(t, err)
		assert.Equal(t, c.expect, s, c.state+"/"+c.exit)
	}
}

func TestPollUnknown(t *testing.T) {
	dir := t.TempDir()
	cl := &Client{Qstat: fakeTool(t, dir, "qstat", `echo "qstat: Unknown Job Id 12.server" >&2; exit 153`)}
	_, err := cl.Poll(context.Background(), "12.server")
	assert.Equal(t, drm.ErrUnknownJob, err)
}

func TestPollBadXML(t *testing.T) {
	dir := t.TempDir()
	cl := &Client{Qstat: fakeTool(t, dir, "qstat", "echo '<Data>'")}
	_, err := cl.Poll(context.Background(), "12.server")
	var perr *drm.PollError
	assert.ErrorAs(t, err, &perr)
}

func TestSubmit(t *testing.T) {
	dir := t.TempDir()
	cl := &Client{Qsub: fakeTool(t, dir, "qsub", "echo 12.server")}
	id, err := cl.Submit(context.Background(), &drm.JobTemplate{ScriptPath: "/x.sh"})
	require.NoError(t, err)
	assert.Equal(t, "12.server", id)
}
