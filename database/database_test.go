package database

import (
	"testing"
	"time"

	"github.com/galaxyproject/gxrunner/job"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordEncoding(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	in := &job.Record{
		ID:          "42",
		Kind:        job.Task,
		State:       job.Running,
		CommandLine: "echo hi",
		ExternalID:  "1001",
		Created:     now,
	}

	b, err := Marshal(in)
	require.NoError(t, err)
	out, err := Unmarshal(b)
	require.NoError(t, err)

	assert.Equal(t, in.ID, out.ID)
	assert.Equal(t, in.Kind, out.Kind)
	assert.Equal(t, in.State, out.State)
	assert.Equal(t, in.ExternalID, out.ExternalID)
	assert.True(t, in.Created.Equal(out.Created))
}

func TestStateFilter(t *testing.T) {
	all := StateFilter()
	assert.True(t, all(job.OK))

	active := StateFilter(job.Queued, job.Running)
	assert.True(t, active(job.Queued))
	assert.True(t, active(job.Running))
	assert.False(t, active(job.New))
}
