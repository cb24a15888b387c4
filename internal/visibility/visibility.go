// Package visibility partitions an assembled ground truth into visible
// and hidden sets, assigns opaque display names through a seeded
// shuffle, and rewrites every cross-reference so the agent-facing view
// leaks no internal names.
package visibility

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/vk/xenogen/internal/expand"
)

// Opaque name prefixes per category.
const (
	MoleculeNamePrefix = "M"
	ReactionNamePrefix = "RX"
)

// Reaction shuffles use an offset sub-seed so the two categories do not
// share a permutation.
const reactionSeedOffset = 1000

// Mapping is the per-run visibility decision: opaque names for every
// visible entity plus the explicit hidden list per category.
type Mapping struct {
	// Names maps internal name -> opaque name for visible entities.
	Names map[string]string
	// HiddenMolecules and HiddenReactions list internal names withheld
	// from the agent, in shuffle order.
	HiddenMolecules []string
	HiddenReactions []string
}

// Scenario is the agent-facing view: opaque-named entity bodies with
// all internal references rewritten.
type Scenario struct {
	Molecules map[string]map[string]any
	Reactions map[string]map[string]any
}

// FractionKnown splits names into visible and hidden. The shuffle is
// deterministic for a fixed seed. Degenerate fractions short-circuit
// without touching the random source, so an all-or-nothing split draws
// no randomness.
func FractionKnown(names []string, fraction float64, seed int64) (visible, hidden []string) {
	if len(names) == 0 {
		return nil, nil
	}
	if fraction <= 0 {
		return nil, append([]string{}, names...)
	}
	if fraction >= 1 {
		return append([]string{}, names...), nil
	}

	n := int(math.Round(fraction * float64(len(names))))
	if n < 0 {
		n = 0
	}
	if n > len(names) {
		n = len(names)
	}

	shuffled := append([]string{}, names...)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:n], shuffled[n:]
}

// OpaqueNames assigns each name a shuffled integer suffix drawn from a
// seeded permutation of 1..len(names), so display order carries no
// information about definition order.
func OpaqueNames(names []string, prefix string, seed int64) map[string]string {
	if len(names) == 0 {
		return map[string]string{}
	}
	indices := make([]int, len(names))
	for i := range indices {
		indices[i] = i + 1
	}
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(indices), func(i, j int) {
		indices[i], indices[j] = indices[j], indices[i]
	})

	mapping := make(map[string]string, len(names))
	for i, name := range names {
		mapping[name] = fmt.Sprintf("%s%d", prefix, indices[i])
	}
	return mapping
}

// Generate computes the full visibility mapping for a ground truth.
// Fractions are per category; molecule decisions draw from seed,
// reaction decisions from an offset sub-seed.
func Generate(gt *expand.GroundTruth, moleculeFraction, reactionFraction float64, seed int64) *Mapping {
	m := &Mapping{Names: map[string]string{}}

	visibleMols, hiddenMols := FractionKnown(gt.MoleculeNames(), moleculeFraction, seed)
	m.HiddenMolecules = hiddenMols
	for name, opaque := range OpaqueNames(visibleMols, MoleculeNamePrefix, seed) {
		m.Names[name] = opaque
	}

	rxnSeed := seed + reactionSeedOffset
	visibleRxns, hiddenRxns := FractionKnown(gt.ReactionNames(), reactionFraction, rxnSeed)
	m.HiddenReactions = hiddenRxns
	for name, opaque := range OpaqueNames(visibleRxns, ReactionNamePrefix, rxnSeed) {
		m.Names[name] = opaque
	}

	return m
}

// Apply renders the agent-facing scenario: hidden entities are dropped
// entirely, visible ones renamed to their opaque form, and every string
// value and map key inside each retained body that matches an internal
// name is rewritten. The rewrite must be exhaustive or internal names
// leak into the agent's view.
func Apply(gt *expand.GroundTruth, m *Mapping) *Scenario {
	out := &Scenario{
		Molecules: map[string]map[string]any{},
		Reactions: map[string]map[string]any{},
	}

	for _, name := range gt.MoleculeNames() {
		opaque, ok := m.Names[name]
		if !ok {
			continue
		}
		out.Molecules[opaque] = rewriteBody(gt.Molecules[name], m.Names)
	}
	for _, name := range gt.ReactionNames() {
		opaque, ok := m.Names[name]
		if !ok {
			continue
		}
		out.Reactions[opaque] = rewriteBody(gt.Reactions[name], m.Names)
	}
	return out
}

func rewriteBody(body map[string]any, names map[string]string) map[string]any {
	out := make(map[string]any, len(body))
	for k, v := range body {
		key := k
		if opaque, ok := names[k]; ok {
			key = opaque
		}
		out[key] = rewriteValue(v, names)
	}
	return out
}

func rewriteValue(v any, names map[string]string) any {
	switch val := v.(type) {
	case string:
		if opaque, ok := names[val]; ok {
			return opaque
		}
		return val
	case map[string]any:
		return rewriteBody(val, names)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = rewriteValue(item, names)
		}
		return out
	case []string:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = rewriteValue(item, names)
		}
		return out
	default:
		return v
	}
}
