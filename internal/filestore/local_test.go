package filestore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalSaveAndRemove(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	store, err := NewLocal(root, 0)
	require.NoError(t, err)

	rel, err := store.Save(context.Background(), "pod/abc", "photo.JPG", strings.NewReader("image-bytes"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(rel, "pod/abc/"))
	require.True(t, strings.HasSuffix(rel, ".jpg"))

	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	require.Equal(t, "image-bytes", string(data))

	require.NoError(t, store.Remove(rel))
	require.NoError(t, store.Remove(rel), "removing twice is fine")
}

func TestLocalSaveStaysBelowRoot(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	store, err := NewLocal(root, 0)
	require.NoError(t, err)

	rel, err := store.Save(context.Background(), "../../etc", "x.png", strings.NewReader("x"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(rel, "etc/"))
	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
}

func TestLocalSaveTooLarge(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	store, err := NewLocal(root, 4)
	require.NoError(t, err)

	_, err = store.Save(context.Background(), "pod", "big.png", strings.NewReader("12345"))
	require.ErrorIs(t, err, ErrTooLarge)

	entries, err := os.ReadDir(filepath.Join(root, "pod"))
	require.NoError(t, err)
	require.Empty(t, entries)
}
