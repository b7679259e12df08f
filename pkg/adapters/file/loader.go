package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/tendril/pkg/ports"
)

var definitionExts = []string{".yaml", ".yml", ".json"}

// Loader implements ports.DefinitionLoader over a directory tree of YAML or
// JSON definitions. A component's name is its path relative to the root,
// slash separated, without extension: "forms/login.yaml" is "forms/login".
type Loader struct {
	fsys fs.FS
}

// NewLoader reads definitions below dir.
func NewLoader(dir string) *Loader {
	return &Loader{fsys: os.DirFS(dir)}
}

// NewLoaderFS reads definitions from any fs.FS, such as an embed.FS.
func NewLoaderFS(fsys fs.FS) *Loader {
	return &Loader{fsys: fsys}
}

// GetComponent returns the raw bytes of the first matching definition file.
func (l *Loader) GetComponent(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if name == "" || !fs.ValidPath(name) {
		return nil, fmt.Errorf("%w: %q", ports.ErrDefinitionNotFound, name)
	}
	for _, ext := range definitionExts {
		data, err := fs.ReadFile(l.fsys, name+ext)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read definition %s: %w", name, err)
		}
	}
	return nil, fmt.Errorf("%w: %s", ports.ErrDefinitionNotFound, name)
}

// ListComponents walks the tree and returns every definition name, sorted.
// Hidden directories are skipped.
func (l *Loader) ListComponents(ctx context.Context) ([]string, error) {
	seen := map[string]bool{}
	err := fs.WalkDir(l.fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != "." && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		ext := filepath.Ext(path)
		for _, known := range definitionExts {
			if ext == known {
				seen[strings.TrimSuffix(path, ext)] = true
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list definitions: %w", err)
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
