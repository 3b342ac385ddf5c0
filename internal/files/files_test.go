package files

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name string `json:"name"`
	Tag  int    `json:"tag"`
}

func TestWriteJSONConfigThenReadJSONConfigRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "doc.json")

	in := sample{Name: "zone1", Tag: 7}
	require.NoError(t, WriteJSONConfig(path, &in))

	var out sample
	require.NoError(t, ReadJSONConfig(path, &out))
	assert.Equal(t, in, out)
}

func TestWriteAtomicLeavesNoTempFileBehind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")

	require.NoError(t, WriteAtomic(path, []byte("content"), 0o644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestWriteAtomicOverwritesExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")

	require.NoError(t, WriteAtomic(path, []byte("first"), 0o644))
	require.NoError(t, WriteAtomic(path, []byte("second"), 0o644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestReadJSONConfigMissingFileReturnsError(t *testing.T) {
	var out sample
	err := ReadJSONConfig(filepath.Join(t.TempDir(), "missing.json"), &out)
	assert.Error(t, err)
}
