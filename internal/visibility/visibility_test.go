package visibility

import (
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/xenogen/internal/expand"
)

func names(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("m.x.M%d", i+1)
	}
	return out
}

func TestFractionKnown_Bounds(t *testing.T) {
	t.Parallel()

	all := names(10)

	visible, hidden := FractionKnown(all, 0.0, 42)
	assert.Empty(t, visible)
	assert.Len(t, hidden, 10)

	visible, hidden = FractionKnown(all, 1.0, 42)
	assert.Len(t, visible, 10)
	assert.Empty(t, hidden)

	visible, hidden = FractionKnown(all, 0.7, 42)
	assert.Len(t, visible, 7)
	assert.Len(t, hidden, 3)
}

func TestFractionKnown_PartitionComplete(t *testing.T) {
	t.Parallel()

	all := names(20)
	visible, hidden := FractionKnown(all, 0.35, 7)

	union := append(append([]string{}, visible...), hidden...)
	sort.Strings(union)
	expected := append([]string{}, all...)
	sort.Strings(expected)
	assert.Equal(t, expected, union)

	seen := map[string]bool{}
	for _, n := range union {
		assert.False(t, seen[n], "name %s appears in both partitions", n)
		seen[n] = true
	}
}

func TestFractionKnown_Deterministic(t *testing.T) {
	t.Parallel()

	all := names(15)
	v1, h1 := FractionKnown(all, 0.5, 99)
	v2, h2 := FractionKnown(all, 0.5, 99)
	assert.Equal(t, v1, v2)
	assert.Equal(t, h1, h2)

	v3, _ := FractionKnown(all, 0.5, 100)
	assert.NotEqual(t, v1, v3, "different seeds should shuffle differently")
}

func TestOpaqueNames_PermutedSuffixes(t *testing.T) {
	t.Parallel()

	all := names(12)
	mapping := OpaqueNames(all, "M", 5)
	require.Len(t, mapping, 12)

	suffixes := map[string]bool{}
	for name, opaque := range mapping {
		assert.Contains(t, all, name)
		require.True(t, strings.HasPrefix(opaque, "M"))
		assert.False(t, suffixes[opaque], "opaque name %s assigned twice", opaque)
		suffixes[opaque] = true
	}
	// Suffixes are exactly a permutation of 1..n.
	for i := 1; i <= 12; i++ {
		assert.Contains(t, suffixes, fmt.Sprintf("M%d", i))
	}
}

func TestGenerate_HiddenListsPerCategory(t *testing.T) {
	t.Parallel()

	gt := expand.NewGroundTruth()
	for i := 1; i <= 4; i++ {
		gt.Molecules[fmt.Sprintf("m.x.M%d", i)] = map[string]any{}
	}
	gt.Reactions["r.x.r1"] = map[string]any{}
	gt.Reactions["r.x.r2"] = map[string]any{}

	m := Generate(gt, 1.0, 0.0, 42)
	assert.Empty(t, m.HiddenMolecules)
	assert.Len(t, m.HiddenReactions, 2)
	assert.Len(t, m.Names, 4)
}

func TestApply_RewriteSoundness(t *testing.T) {
	t.Parallel()

	gt := expand.NewGroundTruth()
	gt.Molecules["m.x.A"] = map[string]any{"mass": 18}
	gt.Molecules["m.x.B"] = map[string]any{
		"derived_from": "m.x.A",
		"pathway":      map[string]any{"m.x.A": "input"},
	}
	gt.Reactions["r.x.make"] = map[string]any{
		"reactants": []any{"m.x.A"},
		"products":  []any{"m.x.B"},
	}

	m := Generate(gt, 1.0, 1.0, 3)
	scenario := Apply(gt, m)

	require.Len(t, scenario.Molecules, 2)
	require.Len(t, scenario.Reactions, 1)

	var walk func(v any)
	walk = func(v any) {
		switch val := v.(type) {
		case string:
			assert.NotContains(t, val, "m.x.", "internal name leaked: %s", val)
		case map[string]any:
			for k, item := range val {
				assert.NotContains(t, k, "m.x.", "internal name leaked as key: %s", k)
				walk(item)
			}
		case []any:
			for _, item := range val {
				walk(item)
			}
		}
	}
	for name, body := range scenario.Molecules {
		assert.True(t, strings.HasPrefix(name, MoleculeNamePrefix))
		walk(body)
	}
	for name, body := range scenario.Reactions {
		assert.True(t, strings.HasPrefix(name, ReactionNamePrefix))
		walk(body)
	}
}

func TestApply_DropsHiddenEntities(t *testing.T) {
	t.Parallel()

	gt := expand.NewGroundTruth()
	for i := 1; i <= 6; i++ {
		gt.Molecules[fmt.Sprintf("m.x.M%d", i)] = map[string]any{}
	}

	m := Generate(gt, 0.5, 1.0, 11)
	scenario := Apply(gt, m)

	assert.Len(t, scenario.Molecules, 3)
	assert.Len(t, m.HiddenMolecules, 3)
}

func TestGenerate_Deterministic(t *testing.T) {
	t.Parallel()

	gt := expand.NewGroundTruth()
	for i := 1; i <= 9; i++ {
		gt.Molecules[fmt.Sprintf("m.x.M%d", i)] = map[string]any{}
		gt.Reactions[fmt.Sprintf("r.x.R%d", i)] = map[string]any{}
	}

	a := Generate(gt, 0.6, 0.4, 21)
	b := Generate(gt, 0.6, 0.4, 21)
	assert.Equal(t, a, b)
}
