package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommands(t *testing.T) {
	var names []string
	for _, c := range RootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, n := range []string{"submit", "monitor", "jobs", "order", "version", "completion"} {
		assert.Contains(t, names, n)
	}
}

func TestVersionCommand(t *testing.T) {
	out := &bytes.Buffer{}
	RootCmd.SetOut(out)
	RootCmd.SetArgs([]string{"version"})
	require.NoError(t, RootCmd.Execute())
	assert.Contains(t, out.String(), "version: unknown")
}
