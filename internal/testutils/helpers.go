// Package testutils holds fixtures shared by adapter tests.
package testutils

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/stretchr/testify/require"
)

// LoamRepo initializes an unversioned loam repository in a fresh temp dir
// and saves docs into it, keyed by document ID.
func LoamRepo(t *testing.T, docs map[string]string) (string, core.Repository) {
	t.Helper()

	absPath, err := filepath.Abs(t.TempDir())
	require.NoError(t, err)

	repo, err := loam.Init(absPath, loam.WithVersioning(false), loam.WithForceTemp(false))
	require.NoError(t, err, "init loam repo")

	ctx := context.Background()
	for id, content := range docs {
		require.NoError(t, repo.Save(ctx, core.Document{ID: id, Content: content}), "save %s", id)
	}
	return absPath, repo
}
