package expand

import "sort"

// Name prefixes that qualify ground-truth entities by category.
const (
	MoleculePrefix = "m."
	ReactionPrefix = "r."
)

// GroundTruth is the complete, internally-named molecule/reaction set
// produced by expansion, before any hiding or renaming. Keys are
// namespace-qualified and globally unique.
type GroundTruth struct {
	Molecules map[string]map[string]any
	Reactions map[string]map[string]any
}

// NewGroundTruth returns an empty ground truth.
func NewGroundTruth() *GroundTruth {
	return &GroundTruth{
		Molecules: map[string]map[string]any{},
		Reactions: map[string]map[string]any{},
	}
}

// Merge folds another ground truth into this one.
func (g *GroundTruth) Merge(other *GroundTruth) {
	for name, body := range other.Molecules {
		g.Molecules[name] = body
	}
	for name, body := range other.Reactions {
		g.Reactions[name] = body
	}
}

// MoleculeNames returns all molecule names, sorted.
func (g *GroundTruth) MoleculeNames() []string {
	return sortedNames(g.Molecules)
}

// ReactionNames returns all reaction names, sorted.
func (g *GroundTruth) ReactionNames() []string {
	return sortedNames(g.Reactions)
}

// Clone deep-copies the ground truth. Guard recovery modes mutate their
// working copy (pruning) and must not corrupt an accepted state.
func (g *GroundTruth) Clone() *GroundTruth {
	out := NewGroundTruth()
	for name, body := range g.Molecules {
		out.Molecules[name] = deepCopyMap(body)
	}
	for name, body := range g.Reactions {
		out.Reactions[name] = deepCopyMap(body)
	}
	return out
}

// Remove drops the named element from whichever category holds it.
func (g *GroundTruth) Remove(name string) {
	delete(g.Molecules, name)
	delete(g.Reactions, name)
}

func sortedNames(m map[string]map[string]any) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func deepCopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return deepCopyMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = deepCopyValue(item)
		}
		return out
	default:
		return v
	}
}
