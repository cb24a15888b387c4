package template

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vk/xenogen/internal/ctxlog"
	"github.com/vk/xenogen/internal/fsutil"
	"github.com/vk/xenogen/internal/specnode"
)

// multiTemplatePrefix marks a file-level key that declares one of
// several templates within a single document: "template.<name>:".
const multiTemplatePrefix = "template."

// Registry stores templates by name and is the single source of truth
// for name -> template lookup. It is mutated only while loading; after
// construction it is read-only, so independent pipeline runs may share
// one instance.
type Registry struct {
	templates map[string]*Template
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{templates: map[string]*Template{}}
}

// Register stores a template under the given name, overwriting any
// previous registration of the same name.
func (r *Registry) Register(name string, t *Template) {
	r.templates[name] = t
}

// Get returns the template registered under name, or a NotFoundError
// that enumerates a sample of known names.
func (r *Registry) Get(name string) (*Template, error) {
	t, ok := r.templates[name]
	if !ok {
		return nil, &NotFoundError{Name: name, Known: r.Names()}
	}
	return t, nil
}

// Contains reports whether a name is registered.
func (r *Registry) Contains(name string) bool {
	_, ok := r.templates[name]
	return ok
}

// Names returns all registered template names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadTree walks a directory of YAML documents and registers each one as
// a template named by its path relative to the root ("primitives/
// energy_cycle.yaml" -> "primitives/energy_cycle"). A file may instead
// declare several templates with repeated "template.<name>:" keys; each
// is registered under its directory path plus the declared name.
func LoadTree(ctx context.Context, root string) (*Registry, error) {
	logger := ctxlog.FromContext(ctx)
	registry := NewRegistry()

	files, err := fsutil.FindFilesByExtensions(root, ".yaml", ".yml")
	if err != nil {
		return nil, fmt.Errorf("walking template tree %s: %w", root, err)
	}
	if len(files) == 0 {
		logger.Warn("No template files found in tree.", "root", root)
		return registry, nil
	}

	for _, file := range files {
		node, err := specnode.HydrateFile(file)
		if err != nil {
			return nil, fmt.Errorf("loading template file %s: %w", file, err)
		}
		if !node.IsMap() {
			continue
		}

		rel, err := filepath.Rel(root, file)
		if err != nil {
			rel = file
		}
		rel = filepath.ToSlash(rel)
		pathName := strings.TrimSuffix(rel, filepath.Ext(rel))

		if err := registerFromDocument(registry, node, pathName); err != nil {
			return nil, fmt.Errorf("template file %s: %w", file, err)
		}
		logger.Debug("Loaded template file.", "file", file, "name", pathName)
	}

	logger.Info("Template registry loaded.", "templates", len(registry.templates), "root", root)
	return registry, nil
}

func registerFromDocument(registry *Registry, node *specnode.Node, pathName string) error {
	multi := false
	for _, key := range node.Keys {
		if !strings.HasPrefix(key, multiTemplatePrefix) {
			continue
		}
		multi = true
		local := key[len(multiTemplatePrefix):]
		fullName := local
		if dir := pathDir(pathName); dir != "" {
			fullName = dir + "/" + local
		}
		t, err := Parse(node.Children[key], fullName)
		if err != nil {
			return err
		}
		registry.Register(fullName, t)
	}
	if multi {
		return nil
	}

	t, err := Parse(node, pathName)
	if err != nil {
		return err
	}
	registry.Register(pathName, t)
	return nil
}

func pathDir(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		return name[:i]
	}
	return ""
}
