package specnode

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Tag markers recognized during hydration.
const (
	tagEval    = "!_"
	tagQuoted  = "!quote"
	tagRef     = "!ref"
	tagInclude = "!include"
)

// Hydrate converts a parsed YAML document into a typed Node tree.
//
// Include markers are resolved eagerly, before any evaluation can happen,
// so the resulting tree is self-contained. baseDir anchors relative
// include paths. Unrecognized local tags are a hydration error.
func Hydrate(doc *yaml.Node, baseDir string) (*Node, error) {
	return hydrate(doc, baseDir, nil)
}

// HydrateFile reads, parses and hydrates a single YAML file.
func HydrateFile(path string) (*Node, error) {
	node, err := parseFile(path)
	if err != nil {
		return nil, err
	}
	return hydrate(node, filepath.Dir(path), []string{absPath(path)})
}

func parseFile(path string) (*yaml.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &node, nil
}

func hydrate(yn *yaml.Node, baseDir string, includeChain []string) (*Node, error) {
	switch yn.Kind {
	case yaml.DocumentNode:
		if len(yn.Content) == 0 {
			return NewScalar(nil), nil
		}
		return hydrate(yn.Content[0], baseDir, includeChain)

	case yaml.AliasNode:
		return hydrate(yn.Alias, baseDir, includeChain)

	case yaml.MappingNode:
		out := NewMap()
		for i := 0; i+1 < len(yn.Content); i += 2 {
			keyNode := yn.Content[i]
			child, err := hydrate(yn.Content[i+1], baseDir, includeChain)
			if err != nil {
				return nil, err
			}
			out.Set(keyNode.Value, child)
		}
		return out, nil

	case yaml.SequenceNode:
		items := make([]*Node, 0, len(yn.Content))
		for _, c := range yn.Content {
			child, err := hydrate(c, baseDir, includeChain)
			if err != nil {
				return nil, err
			}
			items = append(items, child)
		}
		return &Node{Kind: KindSeq, Items: items}, nil

	case yaml.ScalarNode:
		return hydrateScalar(yn, baseDir, includeChain)

	default:
		return nil, &HydrateError{Detail: fmt.Sprintf("unsupported YAML node kind %d", yn.Kind)}
	}
}

func hydrateScalar(yn *yaml.Node, baseDir string, includeChain []string) (*Node, error) {
	switch yn.Tag {
	case tagEval:
		return &Node{Kind: KindEval, Source: yn.Value}, nil
	case tagQuoted:
		return &Node{Kind: KindQuoted, Source: yn.Value}, nil
	case tagRef:
		return &Node{Kind: KindRef, Source: yn.Value}, nil
	case tagInclude:
		return hydrateInclude(yn.Value, baseDir, includeChain)
	}

	// Local tags other than the recognized markers are author mistakes;
	// failing here beats silently treating them as strings.
	if strings.HasPrefix(yn.Tag, "!") && !strings.HasPrefix(yn.Tag, "!!") {
		return nil, &HydrateError{Tag: yn.Tag, Detail: fmt.Sprintf("value '%s'", yn.Value)}
	}

	var v any
	if err := yn.Decode(&v); err != nil {
		return nil, &HydrateError{Detail: fmt.Sprintf("decoding scalar '%s': %v", yn.Value, err)}
	}
	// Normalize integral values so expressions and namespacing see one
	// integer type.
	if i, ok := v.(int); ok {
		v = int64(i)
	}
	return NewScalar(v), nil
}

func hydrateInclude(path, baseDir string, includeChain []string) (*Node, error) {
	full := path
	if !filepath.IsAbs(full) {
		full = filepath.Join(baseDir, path)
	}
	full = absPath(full)

	for _, seen := range includeChain {
		if seen == full {
			return nil, &CircularIncludeError{Chain: append(append([]string{}, includeChain...), full)}
		}
	}
	chain := append(append([]string{}, includeChain...), full)

	switch strings.ToLower(filepath.Ext(full)) {
	case ".yaml", ".yml":
		node, err := parseFile(full)
		if err != nil {
			return nil, err
		}
		return hydrate(node, filepath.Dir(full), chain)
	default:
		data, err := os.ReadFile(full)
		if err != nil {
			return nil, fmt.Errorf("include file not found: %w", err)
		}
		return NewScalar(string(data)), nil
	}
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
