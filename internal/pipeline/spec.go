package pipeline

import (
	"fmt"

	"github.com/vk/xenogen/internal/specnode"
)

// Recognized top-level keys of a generator spec document.
const (
	keyParams      = "_params_"
	keyGuards      = "_guards_"
	keyVisibility  = "_visibility_"
	keyMetadata    = "_metadata_"
	keyInstantiate = "_instantiate_"
	keyInteraction = "interactions"
	keyModify      = "_modify_"
	keyBackground  = "background"
	keyParameters  = "parameters"
	keyContainers  = "containers"
)

// CategoryVisibility configures the known fraction for one entity
// category.
type CategoryVisibility struct {
	FractionKnown float64
}

// VisibilityConfig is the spec's `_visibility_` section. Absent
// categories default to fully visible.
type VisibilityConfig struct {
	Molecules CategoryVisibility
	Reactions CategoryVisibility
}

// GuardConfig is the spec's `_guards_` section: a named guard list and
// the recovery mode applied when one fires.
type GuardConfig struct {
	Names []string
	Mode  string
}

// BackgroundConfig drives filler generation. Counts are nodes because
// they may be deferred expressions sampled at instantiation time.
type BackgroundConfig struct {
	Molecules  *specnode.Node
	Reactions  *specnode.Node
	GuardNames []string
}

// ContainerConfig drives spatial region generation: a region count,
// initial substrate concentrations, and a per-species population
// sampler, all possibly deferred expressions.
type ContainerConfig struct {
	RegionCount *specnode.Node
	Substrates  *specnode.Node
	PerSpecies  *specnode.Node
}

// Spec is a parsed generator spec. Deferred sections stay as hydrated
// nodes; the pipeline evaluates them against the run seed.
type Spec struct {
	Params       *specnode.Node
	Guards       GuardConfig
	Visibility   VisibilityConfig
	Metadata     *specnode.Node
	Instantiate  *specnode.Node
	Interactions *specnode.Node
	Modify       *specnode.Node
	Background   *BackgroundConfig
	Containers   *ContainerConfig
}

// ParseSpec extracts the recognized sections from a hydrated document.
// Unknown top-level keys are ignored so specs can carry collaborator
// sections (simulator interface, scoring) the generator does not own.
func ParseSpec(node *specnode.Node) (*Spec, error) {
	if node == nil || !node.IsMap() {
		return nil, fmt.Errorf("generator spec must be a mapping at the top level")
	}

	s := &Spec{
		Params:       mapSection(node, keyParams),
		Metadata:     mapSection(node, keyMetadata),
		Instantiate:  mapSection(node, keyInstantiate),
		Interactions: mapSection(node, keyInteraction),
		Modify:       mapSection(node, keyModify),
		Visibility: VisibilityConfig{
			Molecules: CategoryVisibility{FractionKnown: 1.0},
			Reactions: CategoryVisibility{FractionKnown: 1.0},
		},
	}

	if err := parseGuards(node, &s.Guards); err != nil {
		return nil, err
	}
	if err := parseVisibility(node, &s.Visibility); err != nil {
		return nil, err
	}
	if bg, ok := node.Get(keyBackground); ok && bg.IsMap() {
		cfg, err := parseBackground(bg)
		if err != nil {
			return nil, err
		}
		s.Background = cfg
	}
	if params, ok := node.Get(keyParameters); ok && params.IsMap() {
		if containers, ok := params.Get(keyContainers); ok && containers.IsMap() {
			s.Containers = parseContainers(containers)
		}
	}

	return s, nil
}

// parseGuards accepts either a plain list of guard names (the pipeline
// then defaults the mode to retry) or a mapping with `names` and `mode`
// entries.
func parseGuards(node *specnode.Node, out *GuardConfig) error {
	guards, ok := node.Get(keyGuards)
	if !ok {
		return nil
	}
	switch guards.Kind {
	case specnode.KindSeq:
		names, err := scalarStrings(guards)
		if err != nil {
			return fmt.Errorf("%s: %w", keyGuards, err)
		}
		out.Names = names
	case specnode.KindMap:
		if names, ok := guards.Get("names"); ok {
			list, err := scalarStrings(names)
			if err != nil {
				return fmt.Errorf("%s: %w", keyGuards, err)
			}
			out.Names = list
		}
		if mode, ok := guards.Get("mode"); ok {
			s, ok := mode.Value.(string)
			if !ok {
				return fmt.Errorf("%s: mode must be a string", keyGuards)
			}
			out.Mode = s
		}
	default:
		return fmt.Errorf("%s: expected a list of guard names or a mapping", keyGuards)
	}
	return nil
}

func parseVisibility(node *specnode.Node, out *VisibilityConfig) error {
	vis, ok := node.Get(keyVisibility)
	if !ok || !vis.IsMap() {
		return nil
	}
	for category, target := range map[string]*CategoryVisibility{
		"molecules": &out.Molecules,
		"reactions": &out.Reactions,
	} {
		section, ok := vis.Get(category)
		if !ok || !section.IsMap() {
			continue
		}
		fracNode, ok := section.Get("fraction_known")
		if !ok {
			continue
		}
		f, err := scalarFloat(fracNode)
		if err != nil {
			return fmt.Errorf("%s.%s.fraction_known: %w", keyVisibility, category, err)
		}
		target.FractionKnown = f
	}
	return nil
}

func parseBackground(bg *specnode.Node) (*BackgroundConfig, error) {
	cfg := &BackgroundConfig{}
	if mols, ok := bg.Get("molecules"); ok {
		cfg.Molecules = countNode(mols)
	}
	if rxns, ok := bg.Get("reactions"); ok {
		cfg.Reactions = countNode(rxns)
	}
	if guards, ok := bg.Get("guards"); ok {
		names, err := scalarStrings(guards)
		if err != nil {
			return nil, fmt.Errorf("background.guards: %w", err)
		}
		cfg.GuardNames = names
	}
	return cfg, nil
}

// countNode accepts either a bare count (scalar or deferred expression)
// or the `{count: ...}` form.
func countNode(n *specnode.Node) *specnode.Node {
	if n.IsMap() {
		if count, ok := n.Get("count"); ok {
			return count
		}
		return nil
	}
	return n
}

func parseContainers(containers *specnode.Node) *ContainerConfig {
	cfg := &ContainerConfig{}
	if regions, ok := containers.Get("regions"); ok {
		cfg.RegionCount = countNode(regions)
	}
	if substrates, ok := containers.Get("substrates"); ok && substrates.IsMap() {
		cfg.Substrates = substrates
	}
	if organisms, ok := containers.Get("organisms"); ok && organisms.IsMap() {
		if per, ok := organisms.Get("per_species_per_region"); ok {
			cfg.PerSpecies = per
		}
	}
	return cfg
}

func mapSection(node *specnode.Node, key string) *specnode.Node {
	if section, ok := node.Get(key); ok && section.IsMap() {
		return section
	}
	return specnode.NewMap()
}

func scalarStrings(n *specnode.Node) ([]string, error) {
	if n == nil || n.Kind != specnode.KindSeq {
		return nil, fmt.Errorf("expected a list of strings")
	}
	out := make([]string, 0, len(n.Items))
	for _, item := range n.Items {
		s, ok := item.Value.(string)
		if !ok {
			return nil, fmt.Errorf("expected a list of strings")
		}
		out = append(out, s)
	}
	return out, nil
}

func scalarFloat(n *specnode.Node) (float64, error) {
	if n == nil || n.Kind != specnode.KindScalar {
		return 0, fmt.Errorf("expected a number")
	}
	switch v := n.Value.(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case int:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", n.Value)
	}
}
