// Package template holds the in-memory model of reusable scenario
// fragments and the registry that owns them.
package template

import (
	"fmt"
	"strings"

	"github.com/vk/xenogen/internal/specnode"
)

// Port directions.
const (
	DirIn  = "in"
	DirOut = "out"
)

// Port is a typed, directional connection point a template exposes for
// wiring to sibling fragments. Ports carry no runtime state; the
// expansion engine consumes them for validation only.
type Port struct {
	Type      string
	Direction string
	Path      string
}

// ParsePort parses a compact "type.direction" token plus the internal
// path the port is declared under.
func ParsePort(spec, path string) (Port, error) {
	parts := strings.Split(spec, ".")
	if len(parts) != 2 {
		return Port{}, fmt.Errorf("invalid port spec '%s': expected 'type.direction' format", spec)
	}
	portType, direction := parts[0], parts[1]
	if direction != DirIn && direction != DirOut {
		return Port{}, fmt.Errorf("invalid port direction '%s': must be '%s' or '%s'", direction, DirIn, DirOut)
	}
	return Port{Type: portType, Direction: direction, Path: path}, nil
}

// CompatibleWith reports whether two ports can connect: same type,
// opposite direction.
func (p Port) CompatibleWith(other Port) bool {
	return p.Type == other.Type && p.Direction != other.Direction
}

// Token returns the "type.direction" form used by requirement checking.
func (p Port) Token() string {
	return p.Type + "." + p.Direction
}

// Template is a reusable scenario fragment: default parameters, declared
// ports, molecule and reaction bodies, and nested-instantiation
// directives. Templates are immutable once parsed; the registry is the
// single owner.
type Template struct {
	Name        string
	Params      *specnode.Node // KindMap; values may be placeholders
	Ports       map[string]Port
	PortOrder   []string
	Requires    []string
	Molecules   *specnode.Node // KindMap of name -> body
	Reactions   *specnode.Node // KindMap of name -> body
	Instantiate *specnode.Node // KindMap of directive key -> body
}

// Recognized section keys within a template document.
const (
	keyParams      = "_params_"
	keyPorts       = "_ports_"
	keyRequires    = "requires"
	keyMolecules   = "molecules"
	keyReactions   = "reactions"
	keyInstantiate = "_instantiate_"
)

// Parse extracts the template sections from a hydrated map node. Absent
// sections come back as empty maps, so an empty template is valid and
// simply contributes nothing.
func Parse(node *specnode.Node, name string) (*Template, error) {
	if node == nil || !node.IsMap() {
		return nil, fmt.Errorf("template '%s': expected a mapping at the top level", name)
	}

	t := &Template{
		Name:        name,
		Params:      mapSection(node, keyParams),
		Ports:       map[string]Port{},
		Molecules:   mapSection(node, keyMolecules),
		Reactions:   mapSection(node, keyReactions),
		Instantiate: mapSection(node, keyInstantiate),
	}

	if ports, ok := node.Get(keyPorts); ok && ports.IsMap() {
		for _, path := range ports.Keys {
			specEntry := ports.Children[path]
			if specEntry.Kind != specnode.KindScalar {
				return nil, fmt.Errorf("template '%s': port '%s' spec must be a scalar", name, path)
			}
			specStr, ok := specEntry.Value.(string)
			if !ok {
				return nil, fmt.Errorf("template '%s': port '%s' spec must be a string", name, path)
			}
			port, err := ParsePort(specStr, path)
			if err != nil {
				return nil, fmt.Errorf("template '%s': %w", name, err)
			}
			t.Ports[path] = port
			t.PortOrder = append(t.PortOrder, path)
		}
	}

	if requires, ok := node.Get(keyRequires); ok && requires.Kind == specnode.KindSeq {
		for _, item := range requires.Items {
			token, ok := item.Value.(string)
			if !ok {
				return nil, fmt.Errorf("template '%s': requires entries must be strings", name)
			}
			t.Requires = append(t.Requires, token)
		}
	}

	return t, nil
}

func mapSection(node *specnode.Node, key string) *specnode.Node {
	if section, ok := node.Get(key); ok && section.IsMap() {
		return section
	}
	return specnode.NewMap()
}

// MoleculeNames returns the local molecule names in declaration order.
func (t *Template) MoleculeNames() []string {
	return t.Molecules.Keys
}

// ReactionNames returns the local reaction names in declaration order.
func (t *Template) ReactionNames() []string {
	return t.Reactions.Keys
}
