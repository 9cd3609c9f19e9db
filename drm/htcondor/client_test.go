package htcondor

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

func TestExtractID(t *testing.T) {
	assert.Equal(t, "1", extractID("Submitting job(s).\n1 job(s) submitted to cluster 1.\n"))
	assert.Equal(t, "", extractID("ERROR: Failed to parse command file\n"))
}

func TestParseStatus(t *testing.T) {
	s, ok := parseStatus("2 undefined\n")
	assert.True(t, ok)
	assert.Equal(t, drm.Running, s)

	s, _ = parseStatus("4 0\n")
	assert.Equal(t, drm.Done, s)
	s, _ = parseStatus("4 1\n")
	assert.Equal(t, drm.Failed, s)

	_, ok = parseStatus("")
	assert.False(t, ok)
}

func TestSubmitWritesDescription(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "galaxy_1.sh")
	c := &Client{Submitter: fakeTool(t, dir, "condor_submit", `echo "Submitting job(s)."; echo "1 job(s) submitted to cluster 31."`)}

	id, err := c.Submit(context.Background(), &drm.JobTemplate{
		ScriptPath: script,
		StdoutPath: filepath.Join(dir, "1.o"),
		StderrPath: filepath.Join(dir, "1.e"),
		WorkDir:    dir,
	})
	require.NoError(t, err)
	assert.Equal(t, "31", id)

	desc, err := os.ReadFile(drm.DescriptionPath(script))
	require.NoError(t, err)
	assert.Contains(t, string(desc), "executable = "+script)
	assert.Contains(t, string(desc), "initialdir = "+dir)
}

func TestPollHistory(t *testing.T) {
	dir := t.TempDir()
	c := &Client{
		Queue:   fakeTool(t, dir, "condor_q", "exit 0"),
		History: fakeTool(t, dir, "condor_history", "echo 4 0"),
	}
	s, err := c.Poll(context.Background(), "31")
	require.NoError(t, err)
	assert.Equal(t, drm.Done, s)

	c.History = fakeTool(t, dir, "condor_history2", "exit 0")
	_, err = c.Poll(context.Background(), "31")
	assert.Equal(t, drm.ErrUnknownJob, err)
}
