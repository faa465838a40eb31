package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileBlobs(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "nested")
	blobs := NewFileBlobs(dir)

	_, err := blobs.Get(ctx, "wedding-guests")
	assert.ErrorIs(t, err, ErrBlobNotFound)

	require.NoError(t, blobs.Set(ctx, "wedding-guests", []byte(`[]`)))
	data, err := blobs.Get(ctx, "wedding-guests")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(data))

	require.NoError(t, blobs.Set(ctx, "wedding-guests", []byte(`[{"name":"Ivan"}]`)))
	data, err = blobs.Get(ctx, "wedding-guests")
	require.NoError(t, err)
	assert.Equal(t, `[{"name":"Ivan"}]`, string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")

	require.NoError(t, blobs.Delete(ctx, "wedding-guests"))
	require.NoError(t, blobs.Delete(ctx, "wedding-guests"))
	_, err = blobs.Get(ctx, "wedding-guests")
	assert.ErrorIs(t, err, ErrBlobNotFound)
}

func TestFileBlobsRejectsPathKeys(t *testing.T) {
	blobs := NewFileBlobs(t.TempDir())
	for _, key := range []string{"", "../escape", "a/b", ".hidden"} {
		assert.Error(t, blobs.Set(context.Background(), key, []byte("x")), "key %q", key)
	}
}
