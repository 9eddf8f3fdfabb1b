package artifact_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dagflow/dagflow/internal/artifact"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := artifact.NewMemoryStore()
	ref, err := s.Put([]int{1, 2, 3})
	require.NoError(t, err)

	v, err := s.Get(ref)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, v)

	require.NoError(t, s.Delete(ref))
	_, err = s.Get(ref)
	assert.Error(t, err)
}

func TestFilesystemStoreDoesNotRetainMemoryCopy(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "artifacts")
	s, err := artifact.NewFilesystemStore(dir, artifact.SerializerGob)
	require.NoError(t, err)

	data := make([]int, 1000)
	for i := range data {
		data[i] = i
	}
	ref, err := s.Put(data)
	require.NoError(t, err)

	v, err := s.Get(ref)
	require.NoError(t, err)
	assert.Len(t, v, 1000)

	// With the blob file gone, Get has no in-memory copy to fall back on.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		require.NoError(t, os.Remove(filepath.Join(dir, e.Name())))
	}
	_, err = s.Get(ref)
	assert.Error(t, err)
}

func TestFilesystemStoreJSONSerializer(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "artifacts-json")
	s, err := artifact.NewFilesystemStore(dir, artifact.SerializerJSON)
	require.NoError(t, err)

	ref, err := s.Put(map[string]any{"hello": "world"})
	require.NoError(t, err)

	v, err := s.Get(ref)
	require.NoError(t, err)
	assert.Equal(t, "world", v.(map[string]any)["hello"])
}

func TestFilesystemStoreGetMissing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "artifacts-missing")
	s, err := artifact.NewFilesystemStore(dir, artifact.SerializerGob)
	require.NoError(t, err)

	_, err = s.Get(artifact.RefFromString("artifact:does-not-exist"))
	assert.Error(t, err)
}
