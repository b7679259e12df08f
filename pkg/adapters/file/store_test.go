package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/tendril/pkg/adapters/file"
	"github.com/aretw0/tendril/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Contract(t *testing.T) {
	ports.RunBackendContract(t, file.NewStore(t.TempDir()))
}

func TestFileStore_MissingDirectory(t *testing.T) {
	store := file.NewStore(filepath.Join(t.TempDir(), "not", "yet"))

	keys, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, keys)

	require.NoError(t, store.Save(context.Background(), "k", []byte("v")), "Save creates the directory")
}

func TestFileStore_LeavesForeignFiles(t *testing.T) {
	dir := t.TempDir()
	foreign := filepath.Join(dir, "README")
	require.NoError(t, os.WriteFile(foreign, []byte("keep"), 0o644))

	store := file.NewStore(dir)
	require.NoError(t, store.Save(context.Background(), "k", []byte("v")))
	require.NoError(t, store.Clear(context.Background()))

	_, err := os.Stat(foreign)
	assert.NoError(t, err)
}

func TestFileStore_NoTempLeftovers(t *testing.T) {
	dir := t.TempDir()
	store := file.NewStore(dir)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Save(context.Background(), "same", []byte{byte(i)}))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
