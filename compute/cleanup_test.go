package compute

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	require.NoError(t, os.WriteFile(path, []byte("x"), 0600))
}

func TestCleanupPolicyRemoves(t *testing.T) {
	dir := t.TempDir()
	o, e, sh := filepath.Join(dir, "1.o"), filepath.Join(dir, "1.e"), filepath.Join(dir, "galaxy_1.sh")
	touch(t, o)
	touch(t, sh)

	// 1.e never existed
	CleanupPolicy{Log: testLogger()}.Apply(o, e, sh, "")

	for _, p := range []string{o, e, sh} {
		_, err := os.Stat(p)
		assert.True(t, os.IsNotExist(err), p)
	}
}

func TestCleanupPolicyDebugKeeps(t *testing.T) {
	dir := t.TempDir()
	o := filepath.Join(dir, "1.o")
	touch(t, o)

	CleanupPolicy{Debug: true, Log: testLogger()}.Apply(o)

	_, err := os.Stat(o)
	assert.NoError(t, err)
}
