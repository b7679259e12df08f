package ports

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunBackendContract runs a suite of tests verifying that a Backend implementation
// adheres to the interface contract. The backend must start empty.
func RunBackendContract(t *testing.T, backend Backend) {
	ctx := context.Background()
	prefix := "contract-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		key := prefix + "-roundtrip"
		require.NoError(t, backend.Save(ctx, key, []byte(`{"count":1}`)))

		got, err := backend.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, `{"count":1}`, string(got))
	})

	t.Run("Overwrite", func(t *testing.T) {
		key := prefix + "-overwrite"
		require.NoError(t, backend.Save(ctx, key, []byte("first")))
		require.NoError(t, backend.Save(ctx, key, []byte("second")))

		got, err := backend.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "second", string(got), "last write wins")
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := backend.Load(ctx, prefix+"-missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		key := prefix + "-delete"
		require.NoError(t, backend.Save(ctx, key, []byte("x")))
		require.NoError(t, backend.Delete(ctx, key))

		_, err := backend.Load(ctx, key)
		assert.ErrorIs(t, err, ErrNotFound, "Load after Delete should return ErrNotFound")

		assert.NoError(t, backend.Delete(ctx, key), "deleting an absent key is not an error")
	})

	t.Run("Keys With Separators", func(t *testing.T) {
		key := prefix + "/nested:key with spaces"
		require.NoError(t, backend.Save(ctx, key, []byte("ok")))

		got, err := backend.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "ok", string(got))
	})

	t.Run("List", func(t *testing.T) {
		id1 := prefix + "-list-1"
		id2 := prefix + "-list-2"
		require.NoError(t, backend.Save(ctx, id1, []byte("1")))
		require.NoError(t, backend.Save(ctx, id2, []byte("2")))

		keys, err := backend.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, keys, id1)
		assert.Contains(t, keys, id2)
	})

	t.Run("Clear", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			require.NoError(t, backend.Save(ctx, fmt.Sprintf("%s-clear-%d", prefix, i), []byte("x")))
		}
		require.NoError(t, backend.Clear(ctx))

		keys, err := backend.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, keys)

		_, err = backend.Load(ctx, prefix+"-clear-0")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
