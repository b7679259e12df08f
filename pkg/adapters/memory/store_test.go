package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/tendril/pkg/adapters/memory"
	"github.com/aretw0/tendril/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	ports.RunBackendContract(t, memory.NewStore())
}

func TestMemoryStore_CopiesPayloads(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	payload := []byte("abc")
	require.NoError(t, store.Save(ctx, "k", payload))
	payload[0] = 'X'

	got, err := store.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	got[1] = 'Y'
	again, err := store.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}
