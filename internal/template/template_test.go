package template

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/vk/xenogen/internal/specnode"
)

func hydrateString(t *testing.T, src string) *specnode.Node {
	t.Helper()
	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(src), &doc))
	n, err := specnode.Hydrate(&doc, "")
	require.NoError(t, err)
	return n
}

func TestParsePort(t *testing.T) {
	testCases := []struct {
		name      string
		spec      string
		expectErr bool
		port      Port
	}{
		{
			name: "valid out port",
			spec: "energy.out",
			port: Port{Type: "energy", Direction: DirOut, Path: "reactions.make"},
		},
		{
			name: "valid in port",
			spec: "molecule.in",
			port: Port{Type: "molecule", Direction: DirIn, Path: "reactions.make"},
		},
		{
			name:      "bad direction",
			spec:      "energy.sideways",
			expectErr: true,
		},
		{
			name:      "missing direction",
			spec:      "energy",
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			port, err := ParsePort(tc.spec, "reactions.make")
			if tc.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.port, port)
		})
	}
}

func TestPort_CompatibleWith(t *testing.T) {
	t.Parallel()

	out := Port{Type: "energy", Direction: DirOut}
	in := Port{Type: "energy", Direction: DirIn}
	otherType := Port{Type: "molecule", Direction: DirIn}

	assert.True(t, out.CompatibleWith(in))
	assert.True(t, in.CompatibleWith(out))
	assert.False(t, out.CompatibleWith(out))
	assert.False(t, out.CompatibleWith(otherType))
	assert.Equal(t, "energy.out", out.Token())
}

func TestParse_Sections(t *testing.T) {
	t.Parallel()

	n := hydrateString(t, `
_params_:
  rate: 0.1
_ports_:
  reactions.make: energy.out
requires:
  - energy.in
molecules:
  ME1: {mass: 18}
  ME2: {mass: 42}
reactions:
  make:
    reactants: [ME1]
    products: [ME2]
_instantiate_:
  _as_ inner:
    _template_: other
`)

	tpl, err := Parse(n, "energy_cycle")
	require.NoError(t, err)

	assert.Equal(t, "energy_cycle", tpl.Name)
	assert.Equal(t, []string{"ME1", "ME2"}, tpl.MoleculeNames())
	assert.Equal(t, []string{"make"}, tpl.ReactionNames())
	assert.Equal(t, []string{"energy.in"}, tpl.Requires)
	require.Contains(t, tpl.Ports, "reactions.make")
	assert.Equal(t, "energy.out", tpl.Ports["reactions.make"].Token())
	assert.Equal(t, []string{"_as_ inner"}, tpl.Instantiate.Keys)
}

func TestParse_EmptyTemplateIsValid(t *testing.T) {
	t.Parallel()

	tpl, err := Parse(specnode.NewMap(), "empty")
	require.NoError(t, err)
	assert.Empty(t, tpl.MoleculeNames())
	assert.Empty(t, tpl.ReactionNames())
	assert.Empty(t, tpl.Requires)
}

func TestParse_BadPortDirectionFails(t *testing.T) {
	t.Parallel()

	n := hydrateString(t, `
_ports_:
  reactions.make: energy.both
`)
	_, err := Parse(n, "bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "direction")
}

func TestRegistry_GetNotFound(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	registry.Register("primitives/energy_cycle", &Template{Name: "primitives/energy_cycle"})

	_, err := registry.Get("nope")
	require.Error(t, err)

	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "nope", notFound.Name)
	assert.Contains(t, err.Error(), "primitives/energy_cycle")
}

func TestLoadTree(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "primitives"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "primitives", "energy_cycle.yaml"), []byte(`
molecules:
  ME1: {mass: 18}
reactions:
  make:
    reactants: [ME1]
    products: [ME1]
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pair.yaml"), []byte(`
template.first:
  molecules:
    A: {}
template.second:
  molecules:
    B: {}
`), 0o644))

	registry, err := LoadTree(context.Background(), dir)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"primitives/energy_cycle", "first", "second"}, registry.Names())

	tpl, err := registry.Get("primitives/energy_cycle")
	require.NoError(t, err)
	assert.Equal(t, []string{"ME1"}, tpl.MoleculeNames())

	first, err := registry.Get("first")
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, first.MoleculeNames())
}
