package expand

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/vk/xenogen/internal/specnode"
	"github.com/vk/xenogen/internal/template"
)

func parseTemplate(t *testing.T, name, src string) *template.Template {
	t.Helper()
	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(src), &doc))
	n, err := specnode.Hydrate(&doc, "")
	require.NoError(t, err)
	tpl, err := template.Parse(n, name)
	require.NoError(t, err)
	return tpl
}

const energyCycleYAML = `
_params_:
  base_rate: 0.1
molecules:
  ME1: {mass: 18}
  ME2: {mass: 42}
reactions:
  cycle:
    reactants: [ME1]
    products: [ME2]
    rate: !ref base_rate
`

func TestApply_NamespacesEntities(t *testing.T) {
	t.Parallel()

	tpl := parseTemplate(t, "energy_cycle", energyCycleYAML)
	registry := template.NewRegistry()

	gt, err := Apply(context.Background(), tpl, "cellA", nil, registry, 42)
	require.NoError(t, err)

	assert.Equal(t, []string{"m.cellA.ME1", "m.cellA.ME2"}, gt.MoleculeNames())
	assert.Equal(t, []string{"r.cellA.cycle"}, gt.ReactionNames())

	rxn := gt.Reactions["r.cellA.cycle"]
	assert.Equal(t, []any{"m.cellA.ME1"}, rxn["reactants"])
	assert.Equal(t, []any{"m.cellA.ME2"}, rxn["products"])
	assert.Equal(t, 0.1, rxn["rate"])
}

func TestApply_CallerParamsWin(t *testing.T) {
	t.Parallel()

	tpl := parseTemplate(t, "energy_cycle", energyCycleYAML)
	registry := template.NewRegistry()

	gt, err := Apply(context.Background(), tpl, "x", map[string]any{"base_rate": 0.5}, registry, 1)
	require.NoError(t, err)
	assert.Equal(t, 0.5, gt.Reactions["r.x.cycle"]["rate"])
}

func TestApply_DefaultsSeeLaterDefaults(t *testing.T) {
	t.Parallel()

	tpl := parseTemplate(t, "chained", `
_params_:
  base: 2
  doubled: !_ base * 2
molecules:
  M:
    size: !ref doubled
`)
	gt, err := Apply(context.Background(), tpl, "x", nil, template.NewRegistry(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(4), gt.Molecules["m.x.M"]["size"])
}

func TestApply_NestedInstantiation(t *testing.T) {
	t.Parallel()

	registry := template.NewRegistry()
	registry.Register("energy_cycle", parseTemplate(t, "energy_cycle", energyCycleYAML))

	outer := parseTemplate(t, "organism", `
molecules:
  CORE: {}
_instantiate_:
  _as_ metabolism:
    _template_: energy_cycle
`)

	gt, err := Apply(context.Background(), outer, "krel", nil, registry, 7)
	require.NoError(t, err)

	assert.Contains(t, gt.Molecules, "m.krel.CORE")
	assert.Contains(t, gt.Molecules, "m.krel.metabolism.ME1")
	assert.Contains(t, gt.Reactions, "r.krel.metabolism.cycle")
}

func TestApply_ReplicationReproducibility(t *testing.T) {
	t.Parallel()

	child := parseTemplate(t, "cell", `
molecules:
  M:
    mass: !_ normal(50, 10)
`)
	registry := template.NewRegistry()
	registry.Register("cell", child)

	wrapper := parseTemplate(t, "wrapper", `
_instantiate_:
  _as_ x{i in 1..3}:
    _template_: cell
`)

	const seed = int64(11)
	looped, err := Apply(context.Background(), wrapper, "", nil, registry, seed)
	require.NoError(t, err)

	for i := int64(1); i <= 3; i++ {
		ns := map[int64]string{1: "x1", 2: "x2", 3: "x3"}[i]
		single, err := Apply(context.Background(), child, ns, map[string]any{"i": i}, registry, seed+i)
		require.NoError(t, err)
		assert.Equal(t, single.Molecules["m."+ns+".M"], looped.Molecules["m."+ns+".M"],
			"index %d must match a direct expansion at seed+%d", i, i)
	}
}

func TestApply_LoopBoundFromParameter(t *testing.T) {
	t.Parallel()

	child := parseTemplate(t, "cell", `
molecules:
  M: {}
`)
	registry := template.NewRegistry()
	registry.Register("cell", child)

	wrapper := parseTemplate(t, "wrapper", `
_params_:
  copies: 2.6
_instantiate_:
  _as_ c{i in 1..copies}:
    _template_: cell
`)

	gt, err := Apply(context.Background(), wrapper, "", nil, registry, 1)
	require.NoError(t, err)
	// 2.6 rounds to 3 copies.
	assert.Len(t, gt.Molecules, 3)
	assert.Contains(t, gt.Molecules, "m.c3.M")
}

func TestApply_MissingLoopBoundParameter(t *testing.T) {
	t.Parallel()

	registry := template.NewRegistry()
	registry.Register("cell", parseTemplate(t, "cell", `{molecules: {M: {}}}`))

	wrapper := parseTemplate(t, "wrapper", `
_instantiate_:
  _as_ c{i in 1..copies}:
    _template_: cell
`)

	_, err := Apply(context.Background(), wrapper, "", nil, registry, 1)
	require.Error(t, err)

	var missing *MissingParameterError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "copies", missing.Param)
}

func TestApply_CircularReferenceRejected(t *testing.T) {
	t.Parallel()

	registry := template.NewRegistry()
	a := parseTemplate(t, "A", `
_instantiate_:
  _as_ down:
    _template_: B
`)
	b := parseTemplate(t, "B", `
_instantiate_:
  _as_ up:
    _template_: A
`)
	registry.Register("A", a)
	registry.Register("B", b)

	_, err := Apply(context.Background(), a, "root", nil, registry, 1)
	require.Error(t, err)

	var circ *CircularReferenceError
	require.ErrorAs(t, err, &circ)
	assert.Equal(t, []string{"A", "B", "A"}, circ.Chain)
}

func TestApply_GroupingNodeWithoutTemplate(t *testing.T) {
	t.Parallel()

	registry := template.NewRegistry()
	registry.Register("cell", parseTemplate(t, "cell", `{molecules: {M: {}}}`))

	wrapper := parseTemplate(t, "wrapper", `
_instantiate_:
  _as_ group:
    _instantiate_:
      _as_ inner:
        _template_: cell
`)

	gt, err := Apply(context.Background(), wrapper, "", nil, registry, 1)
	require.NoError(t, err)
	assert.Contains(t, gt.Molecules, "m.group.inner.M")
}

func TestApply_RequiresSatisfiedByEarlierSibling(t *testing.T) {
	t.Parallel()

	registry := template.NewRegistry()
	registry.Register("provider", parseTemplate(t, "provider", `
reactions:
  make: {products: [X]}
_ports_:
  reactions.make: energy.out
`))
	registry.Register("consumer", parseTemplate(t, "consumer", `
reactions:
  work: {reactants: [Y]}
requires:
  - energy.out
`))

	ordered := parseTemplate(t, "ordered", `
_instantiate_:
  _as_ prov:
    _template_: provider
  _as_ cons:
    _template_: consumer
`)
	_, err := Apply(context.Background(), ordered, "", nil, registry, 1)
	require.NoError(t, err)

	reversed := parseTemplate(t, "reversed", `
_instantiate_:
  _as_ cons:
    _template_: consumer
  _as_ prov:
    _template_: provider
`)
	_, err = Apply(context.Background(), reversed, "", nil, registry, 1)
	require.Error(t, err)

	var notFound *PortNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "energy.out", notFound.Token)
	assert.Equal(t, "consumer", notFound.Requester)
}

func TestApply_RequiresWithoutProviderFails(t *testing.T) {
	t.Parallel()

	consumer := parseTemplate(t, "consumer", `
reactions:
  work: {reactants: [Y]}
requires:
  - energy.out
`)

	_, err := Apply(context.Background(), consumer, "lone", nil, template.NewRegistry(), 1)
	require.Error(t, err)

	var notFound *PortNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "energy.out", notFound.Token)
	assert.Equal(t, "consumer", notFound.Requester)
}

func TestApply_ExplicitPortConnection(t *testing.T) {
	t.Parallel()

	registry := template.NewRegistry()
	registry.Register("provider", parseTemplate(t, "provider", `
reactions:
  make: {products: [X]}
_ports_:
  reactions.make: energy.out
`))
	registry.Register("consumer", parseTemplate(t, "consumer", `
reactions:
  work: {reactants: [Y]}
_ports_:
  reactions.work: energy.in
`))

	wrapper := parseTemplate(t, "wrapper", `
_instantiate_:
  _as_ prov:
    _template_: provider
  _as_ cons:
    _template_: consumer
    reactions.work: prov.reactions.make
`)

	gt, err := Apply(context.Background(), wrapper, "", nil, registry, 1)
	require.NoError(t, err)
	assert.Equal(t, "r.prov.make", gt.Reactions["r.cons.work"]["energy_source"])
}

func TestApply_PortTypeMismatch(t *testing.T) {
	t.Parallel()

	registry := template.NewRegistry()
	registry.Register("provider", parseTemplate(t, "provider", `
reactions:
  make: {products: [X]}
_ports_:
  reactions.make: molecule.out
`))
	registry.Register("consumer", parseTemplate(t, "consumer", `
reactions:
  work: {reactants: [Y]}
_ports_:
  reactions.work: energy.in
`))

	wrapper := parseTemplate(t, "wrapper", `
_instantiate_:
  _as_ prov:
    _template_: provider
  _as_ cons:
    _template_: consumer
    reactions.work: prov.reactions.make
`)

	_, err := Apply(context.Background(), wrapper, "", nil, registry, 1)
	require.Error(t, err)

	var mismatch *PortTypeMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "energy.in", mismatch.SourceSpec)
	assert.Equal(t, "molecule.out", mismatch.TargetSpec)
}

func TestApply_EmptyTemplateContributesNothing(t *testing.T) {
	t.Parallel()

	tpl, err := template.Parse(specnode.NewMap(), "empty")
	require.NoError(t, err)

	gt, err := Apply(context.Background(), tpl, "x", nil, template.NewRegistry(), 1)
	require.NoError(t, err)
	assert.Empty(t, gt.Molecules)
	assert.Empty(t, gt.Reactions)
}
