package specnode

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func hydrateString(t *testing.T, src string) *Node {
	t.Helper()
	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(src), &doc))
	n, err := Hydrate(&doc, "")
	require.NoError(t, err)
	return n
}

func TestHydrate_TagVariants(t *testing.T) {
	t.Parallel()

	n := hydrateString(t, `
count: !_ normal(10, 2)
rate: !quote k * substrate
target: !ref params.depth
plain: hello
number: 3
`)
	require.True(t, n.IsMap())

	count, ok := n.Get("count")
	require.True(t, ok)
	assert.Equal(t, KindEval, count.Kind)
	assert.Equal(t, "normal(10, 2)", count.Source)

	rate, ok := n.Get("rate")
	require.True(t, ok)
	assert.Equal(t, KindQuoted, rate.Kind)
	assert.Equal(t, "k * substrate", rate.Source)

	target, ok := n.Get("target")
	require.True(t, ok)
	assert.Equal(t, KindRef, target.Kind)
	assert.Equal(t, "params.depth", target.Source)

	plain, ok := n.Get("plain")
	require.True(t, ok)
	assert.Equal(t, KindScalar, plain.Kind)
	assert.Equal(t, "hello", plain.Value)

	number, ok := n.Get("number")
	require.True(t, ok)
	assert.Equal(t, int64(3), number.Value)
}

func TestHydrate_UnknownTagFails(t *testing.T) {
	t.Parallel()

	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(`x: !bogus 3`), &doc))

	_, err := Hydrate(&doc, "")
	require.Error(t, err)

	var hydrateErr *HydrateError
	require.ErrorAs(t, err, &hydrateErr)
	assert.Equal(t, "!bogus", hydrateErr.Tag)
}

func TestHydrate_PreservesKeyOrder(t *testing.T) {
	t.Parallel()

	n := hydrateString(t, "b: 1\nz: 2\na: 3\n")
	assert.Equal(t, []string{"b", "z", "a"}, n.Keys)
}

func TestHydrateFile_Include(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	shared := filepath.Join(dir, "shared.yaml")
	require.NoError(t, os.WriteFile(shared, []byte("depth: 2\n"), 0o644))

	main := filepath.Join(dir, "main.yaml")
	require.NoError(t, os.WriteFile(main, []byte("params: !include shared.yaml\n"), 0o644))

	n, err := HydrateFile(main)
	require.NoError(t, err)

	params, ok := n.Get("params")
	require.True(t, ok)
	require.True(t, params.IsMap())
	depth, ok := params.Get("depth")
	require.True(t, ok)
	assert.Equal(t, int64(2), depth.Value)
}

func TestHydrateFile_CircularIncludeFails(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	a := filepath.Join(dir, "a.yaml")
	b := filepath.Join(dir, "b.yaml")
	require.NoError(t, os.WriteFile(a, []byte("next: !include b.yaml\n"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("next: !include a.yaml\n"), 0o644))

	_, err := HydrateFile(a)
	require.Error(t, err)

	var circErr *CircularIncludeError
	require.ErrorAs(t, err, &circErr)
	assert.GreaterOrEqual(t, len(circErr.Chain), 3)
}

func TestDehydrate_ReemitsMarkers(t *testing.T) {
	t.Parallel()

	n := hydrateString(t, `
count: !_ poisson(4)
rate: !quote k * s
`)
	raw := Dehydrate(n)
	m, ok := raw.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "!_ poisson(4)", m["count"])
	assert.Equal(t, "!quote k * s", m["rate"])
}
