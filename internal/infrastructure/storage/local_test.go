package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yokitheyo/hordegen/internal/config"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := New(&config.StorageConfig{Type: "local", LocalPath: dir})
	require.NoError(t, err)

	ctx := context.Background()
	path, err := store.SaveResult(ctx, "gen-1.png", strings.NewReader("pixels"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("results", "gen-1.png"), path)

	rc, err := store.GetResult(ctx, path)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "pixels", string(data))

	require.NoError(t, store.Delete(ctx, path))
	_, err = os.Stat(filepath.Join(dir, path))
	assert.True(t, os.IsNotExist(err))

	_, err = store.GetResult(ctx, path)
	assert.ErrorIs(t, err, ErrObjectNotFound)
	assert.NoError(t, store.Delete(ctx, path))
}

func TestLocalStorageRejectsEscapingPaths(t *testing.T) {
	store, err := NewLocalStorage(&config.StorageConfig{LocalPath: t.TempDir()})
	require.NoError(t, err)

	_, err = store.GetResult(context.Background(), "../../etc/passwd")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestLocalStorageEmptyReader(t *testing.T) {
	store, err := NewLocalStorage(&config.StorageConfig{LocalPath: t.TempDir()})
	require.NoError(t, err)

	_, err = store.SaveResult(context.Background(), "empty.png", strings.NewReader(""))
	assert.Error(t, err)
}

func TestNewUnsupportedType(t *testing.T) {
	_, err := New(&config.StorageConfig{Type: "ftp"})
	assert.Error(t, err)
}
