package guard

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vk/xenogen/internal/expand"
)

// Guard names accepted in a spec's `_guards_` list.
const (
	GuardNoNewSpeciesDeps = "no_new_species_dependencies"
	GuardNoNewCycles      = "no_new_cycles"
	GuardNoEssentialGate  = "no_essential_gating"
)

// UnknownGuardError reports a `_guards_` entry with no registered check.
type UnknownGuardError struct {
	Name  string
	Known []string
}

func (e *UnknownGuardError) Error() string {
	return fmt.Sprintf("unknown guard '%s' (known: %s)", e.Name, strings.Join(e.Known, ", "))
}

var builtins = map[string]Func{
	GuardNoNewSpeciesDeps: noNewSpeciesDependencies,
	GuardNoNewCycles:      noNewCycles,
	GuardNoEssentialGate:  noEssentialGating,
}

// Resolve maps guard names from a spec to their checks.
func Resolve(names []string) ([]Named, error) {
	out := make([]Named, 0, len(names))
	for _, name := range names {
		check, ok := builtins[name]
		if !ok {
			known := make([]string, 0, len(builtins))
			for k := range builtins {
				known = append(known, k)
			}
			sort.Strings(known)
			return nil, &UnknownGuardError{Name: name, Known: known}
		}
		out = append(out, Named{Name: name, Check: check})
	}
	return out, nil
}

// speciesOf extracts the top-level namespace from a qualified name like
// "m.krel.energy.ME1". Background ("bg") entities belong to no species.
func speciesOf(name string) string {
	parts := strings.Split(name, ".")
	if len(parts) < 2 {
		return ""
	}
	species := parts[0]
	if parts[0] == "m" || parts[0] == "r" {
		species = parts[1]
	}
	if species == "bg" {
		return ""
	}
	return species
}

// noNewSpeciesDependencies rejects any reaction whose reactants and
// products mix molecules from more than one species namespace.
// Background molecules may appear in any reaction.
func noNewSpeciesDependencies(gt *expand.GroundTruth) *Violation {
	for _, name := range gt.ReactionNames() {
		body := gt.Reactions[name]
		seen := map[string]bool{}
		for _, mol := range append(stringList(body["reactants"]), stringList(body["products"])...) {
			if sp := speciesOf(mol); sp != "" {
				seen[sp] = true
			}
		}
		if len(seen) > 1 {
			species := make([]string, 0, len(seen))
			for sp := range seen {
				species = append(species, sp)
			}
			sort.Strings(species)
			return &Violation{
				Guard:   GuardNoNewSpeciesDeps,
				Message: fmt.Sprintf("cross-species dependency in reaction '%s': molecules from [%s]", name, strings.Join(species, ", ")),
				Prune:   []string{name},
			}
		}
	}
	return nil
}

// noNewCycles rejects a reaction set whose reactant->product dependency
// graph contains a cycle.
func noNewCycles(gt *expand.GroundTruth) *Violation {
	graph := BuildDependencyGraph(gt.Reactions)
	cycles := DetectCycles(graph)
	if len(cycles) == 0 {
		return nil
	}
	cycle := cycles[0]
	return &Violation{
		Guard:   GuardNoNewCycles,
		Message: fmt.Sprintf("cycle detected: %s", strings.Join(cycle, " -> ")),
		Prune:   reactionsClosing(gt, cycle),
	}
}

// reactionsClosing names the reactions whose edges participate in the
// cycle, so prune mode can break it.
func reactionsClosing(gt *expand.GroundTruth, cycle []string) []string {
	inCycle := map[string]bool{}
	for _, mol := range cycle {
		inCycle[mol] = true
	}
	var out []string
	for _, name := range gt.ReactionNames() {
		body := gt.Reactions[name]
		touchesReactant := false
		for _, r := range stringList(body["reactants"]) {
			if inCycle[r] {
				touchesReactant = true
				break
			}
		}
		if !touchesReactant {
			continue
		}
		for _, p := range stringList(body["products"]) {
			if inCycle[p] {
				out = append(out, name)
				break
			}
		}
	}
	return out
}

// noEssentialGating rejects a ground truth in which a molecule marked
// essential has no production path left: every essential molecule must
// appear in at least one reaction's products.
func noEssentialGating(gt *expand.GroundTruth) *Violation {
	produced := map[string]bool{}
	for _, body := range gt.Reactions {
		for _, p := range stringList(body["products"]) {
			produced[p] = true
		}
	}
	for _, name := range gt.MoleculeNames() {
		body := gt.Molecules[name]
		if essential, ok := body["essential"].(bool); !ok || !essential {
			continue
		}
		if !produced[name] {
			return &Violation{
				Guard:   GuardNoEssentialGate,
				Message: fmt.Sprintf("essential molecule '%s' has no production path", name),
			}
		}
	}
	return nil
}
