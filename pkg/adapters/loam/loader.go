// Package loam loads component definitions from a loam document repository:
// Markdown files whose frontmatter holds the definition and whose body
// documents the component.
package loam

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"
	"github.com/aretw0/tendril/pkg/ports"
)

// Loader adapts a loam repository to ports.DefinitionLoader.
type Loader struct {
	Repo *loam.TypedRepository[ComponentMetadata]
}

// New creates a loader over an existing typed repository.
func New(repo *loam.TypedRepository[ComponentMetadata]) *Loader {
	return &Loader{
		Repo: repo,
	}
}

// Open initializes a read-only, strict loam repository at dir. Numbers in
// frontmatter decode as json.Number.
func Open(dir string) (*Loader, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[ComponentMetadata](repo)), nil
}

// GetComponent returns the frontmatter of the named document as JSON.
func (l *Loader) GetComponent(ctx context.Context, name string) ([]byte, error) {
	index, err := l.index(ctx)
	if err != nil {
		return nil, err
	}
	docID, ok := index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ports.ErrDefinitionNotFound, name)
	}

	doc, err := l.Repo.Get(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("loam get failed for %s: %w", name, err)
	}

	data := doc.Data
	if data.Name == "" {
		data.Name = name
	}
	data.Variables = normalizeMap(data.Variables)
	data.Attributes = normalizeMap(data.Attributes)
	data.Formulas = normalizeMap(data.Formulas)
	data.Events = normalizeMap(data.Events)
	for i, h := range data.Handlers {
		data.Handlers[i] = normalize(h)
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal component %s: %w", name, err)
	}
	return raw, nil
}

// ListComponents returns the component names in sorted order.
func (l *Loader) ListComponents(ctx context.Context) ([]string, error) {
	index, err := l.index(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(index))
	for name := range index {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// index maps component names to document IDs. A frontmatter name wins over
// the file name; two documents claiming one name is an error.
func (l *Loader) index(ctx context.Context) (map[string]string, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	index := make(map[string]string, len(docs))
	for _, doc := range docs {
		name := doc.Data.Name
		if name == "" {
			name = trimExtension(doc.ID)
		}
		if existing, ok := index[name]; ok {
			return nil, fmt.Errorf("collision detected: component '%s' is defined in both '%s' and '%s'", name, existing, doc.ID)
		}
		index[name] = trimExtension(doc.ID)
	}
	return index, nil
}

func trimExtension(id string) string {
	id = filepath.ToSlash(id)
	return strings.TrimSuffix(id, filepath.Ext(id))
}

func normalizeMap(m map[string]any) map[string]any {
	for k, v := range m {
		m[k] = normalize(v)
	}
	return m
}

// normalize converts map[any]any produced by some YAML decoders into
// map[string]any so the tree encodes as JSON.
func normalize(v any) any {
	switch t := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[fmt.Sprint(k)] = normalize(item)
		}
		return out
	case map[string]any:
		return normalizeMap(t)
	case []any:
		for i, item := range t {
			t[i] = normalize(item)
		}
		return t
	}
	return v
}
