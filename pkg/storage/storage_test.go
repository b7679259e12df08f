package storage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/tendril/pkg/adapters/memory"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/storage"
	"github.com/aretw0/tendril/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingBackend struct{ memory.Store }

func (failingBackend) Load(context.Context, string) ([]byte, error) {
	return nil, errors.New("connection refused")
}

func TestStorage_SetGet(t *testing.T) {
	ctx := context.Background()
	backend := memory.NewStore()
	s := storage.New(backend)

	v := value.Object(map[string]value.Value{"count": value.Int(2), "tags": value.Array(value.String("a"))})
	require.NoError(t, s.Set(ctx, "state", v))
	assert.True(t, value.Equal(v, s.Get(ctx, "state")))

	raw, err := backend.Load(ctx, "state")
	require.NoError(t, err)
	assert.JSONEq(t, `{"count":2,"tags":["a"]}`, string(raw), "values are stored as JSON text")
}

func TestStorage_GetNeverFails(t *testing.T) {
	ctx := context.Background()
	backend := memory.NewStore()
	s := storage.New(backend)

	assert.True(t, s.Get(ctx, "absent").IsNull())

	require.NoError(t, backend.Save(ctx, "corrupt", []byte("{not json")))
	assert.True(t, s.Get(ctx, "corrupt").IsNull())

	assert.True(t, storage.New(&failingBackend{}).Get(ctx, "k").IsNull())
	assert.True(t, storage.New(nil).Get(ctx, "k").IsNull())

	var nilStorage *storage.Storage
	assert.True(t, nilStorage.Get(ctx, "k").IsNull())
}

func TestStorage_InvalidKey(t *testing.T) {
	ctx := context.Background()
	s := storage.New(memory.NewStore())

	assert.ErrorIs(t, s.Set(ctx, "", value.Int(1)), domain.ErrInvalidKey)
	assert.ErrorIs(t, s.Delete(ctx, ""), domain.ErrInvalidKey)
	assert.ErrorIs(t, storage.New(nil).Set(ctx, "k", value.Int(1)), storage.ErrUnavailable)
}

func TestStorage_DeleteClear(t *testing.T) {
	ctx := context.Background()
	s := storage.New(memory.NewStore())

	require.NoError(t, s.Set(ctx, "a", value.Int(1)))
	require.NoError(t, s.Set(ctx, "b", value.Int(2)))

	require.NoError(t, s.Delete(ctx, "a"))
	assert.True(t, s.Get(ctx, "a").IsNull())
	assert.False(t, s.Get(ctx, "b").IsNull())

	require.NoError(t, s.Clear(ctx))
	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}
