package tests

import (
	"context"
	"testing"

	"github.com/aretw0/tendril/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// DefinitionLoaderContractTest is a reusable suite verifying that an adapter complies with ports.DefinitionLoader.
// setupData maps component names to the exact bytes the loader is expected to return.
func DefinitionLoaderContractTest(t *testing.T, loader ports.DefinitionLoader, setupData map[string][]byte) {
	t.Helper()
	ctx := context.Background()

	t.Run("GetComponent_Success", func(t *testing.T) {
		for name, expected := range setupData {
			content, err := loader.GetComponent(ctx, name)
			require.NoError(t, err, "component %s", name)
			assert.Equal(t, string(expected), string(content), "content mismatch for %s", name)
		}
	})

	t.Run("GetComponent_NotFound", func(t *testing.T) {
		_, err := loader.GetComponent(ctx, "non-existent-component")
		assert.ErrorIs(t, err, ports.ErrDefinitionNotFound)
	})

	t.Run("ListComponents", func(t *testing.T) {
		names, err := loader.ListComponents(ctx)
		require.NoError(t, err)
		assert.Len(t, names, len(setupData))
		for name := range setupData {
			assert.Contains(t, names, name)
		}
	})
}
