package specnode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEval_QuotedSurvivesUnchanged(t *testing.T) {
	t.Parallel()

	n := hydrateString(t, `rate: !quote Vmax * s / (Km + s)`)
	ctx := NewContext(1, nil)

	v, err := Eval(n, ctx)
	require.NoError(t, err)
	m := v.(map[string]any)
	assert.Equal(t, "Vmax * s / (Km + s)", m["rate"])
}

func TestEval_RefLookup(t *testing.T) {
	t.Parallel()

	scope := NewScope(map[string]any{
		"params": map[string]any{"depth": int64(3)},
	})
	ctx := NewContext(1, scope)

	n := hydrateString(t, `d: !ref params.depth`)
	v, err := Eval(n, ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), v.(map[string]any)["d"])
}

func TestEval_RefNotFound(t *testing.T) {
	t.Parallel()

	ctx := NewContext(1, nil)
	n := hydrateString(t, `d: !ref missing.name`)

	_, err := Eval(n, ctx)
	require.Error(t, err)

	var refErr *ReferenceNotFoundError
	require.ErrorAs(t, err, &refErr)
	assert.Equal(t, "missing.name", refErr.Name)
}

func TestEvalExpression_Arithmetic(t *testing.T) {
	t.Parallel()

	ctx := NewContext(1, NewScope(map[string]any{"n": int64(4)}))

	v, err := EvalExpression("n * 2 + 1", ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(9), v)

	v, err = EvalExpression("round(2.6)", ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)
}

func TestEvalExpression_DisallowedNameFails(t *testing.T) {
	t.Parallel()

	ctx := NewContext(1, nil)
	_, err := EvalExpression("os_getenv(\"HOME\")", ctx)
	require.Error(t, err)

	var evalErr *EvalError
	require.ErrorAs(t, err, &evalErr)
	assert.Equal(t, "os_getenv(\"HOME\")", evalErr.Source)
}

func TestEvalExpression_SamplersDeterministic(t *testing.T) {
	t.Parallel()

	exprs := []string{
		"normal(10, 2)",
		"uniform(0, 1)",
		"lognormal(0.1, 0.3)",
		"exponential(2)",
		"poisson(4)",
	}
	for _, src := range exprs {
		t.Run(src, func(t *testing.T) {
			a, err := EvalExpression(src, NewContext(42, nil))
			require.NoError(t, err)
			b, err := EvalExpression(src, NewContext(42, nil))
			require.NoError(t, err)
			assert.Equal(t, a, b, "same seed must draw the same value")
		})
	}
}

func TestEvalExpression_Choice(t *testing.T) {
	t.Parallel()

	ctx := NewContext(7, nil)
	v, err := EvalExpression(`choice(["a", "b", "c"])`, ctx)
	require.NoError(t, err)
	assert.Contains(t, []any{"a", "b", "c"}, v)
}

func TestEvalExpression_DiscreteRespectsWeights(t *testing.T) {
	t.Parallel()

	// A zero weight must never be drawn.
	for seed := int64(0); seed < 20; seed++ {
		ctx := NewContext(seed, nil)
		v, err := EvalExpression(`discrete(["always", "never"], [1, 0])`, ctx)
		require.NoError(t, err)
		assert.Equal(t, "always", v)
	}
}

func TestEvalExpression_PoissonNonNegative(t *testing.T) {
	t.Parallel()

	for seed := int64(0); seed < 10; seed++ {
		v, err := EvalExpression("poisson(3)", NewContext(seed, nil))
		require.NoError(t, err)
		n, ok := v.(int64)
		require.True(t, ok)
		assert.GreaterOrEqual(t, n, int64(0))
	}
}

func TestEval_MapWalkOrderIsStable(t *testing.T) {
	t.Parallel()

	src := `
a: !_ normal(0, 1)
b: !_ normal(0, 1)
c: !_ normal(0, 1)
`
	first, err := Eval(hydrateString(t, src), NewContext(13, nil))
	require.NoError(t, err)
	second, err := Eval(hydrateString(t, src), NewContext(13, nil))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestScope_ParentChain(t *testing.T) {
	t.Parallel()

	root := NewScope(map[string]any{"x": 1, "y": 2})
	child := root.Child(map[string]any{"x": 10})

	v, ok := child.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, 10, v)

	v, ok = child.Lookup("y")
	require.True(t, ok)
	assert.Equal(t, 2, v)

	child.Bind("z", 3)
	_, ok = root.Lookup("z")
	assert.False(t, ok, "child bindings must not leak into the parent")
}
