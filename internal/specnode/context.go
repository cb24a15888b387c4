package specnode

import (
	"math/rand"

	"github.com/zclconf/go-cty/cty/function"
)

// Context carries everything expression evaluation needs: a seeded
// pseudo-random source, a lexical Scope for reference lookup, and a
// fixed table of permitted functions. All sampling draws from the
// context's random source, so a run is fully reproducible from the seed.
type Context struct {
	rng   *rand.Rand
	Scope *Scope
	funcs map[string]function.Function
}

// NewContext creates an evaluation context seeded with the given seed.
// The function table is built once and bound to the context's random
// source; it is the only set of functions expressions may call.
func NewContext(seed int64, scope *Scope) *Context {
	if scope == nil {
		scope = NewScope(nil)
	}
	c := &Context{
		rng:   rand.New(rand.NewSource(seed)),
		Scope: scope,
	}
	c.funcs = functionTable(c.rng)
	return c
}

// WithScope returns a context that shares this context's random source
// and function table but resolves references against a different scope.
// Used for nested instantiations, so each lexical level sees its own
// parameters without re-seeding.
func (c *Context) WithScope(scope *Scope) *Context {
	return &Context{rng: c.rng, Scope: scope, funcs: c.funcs}
}

// Rand exposes the seeded random source for callers that sample outside
// of expressions (e.g. background filler wiring).
func (c *Context) Rand() *rand.Rand {
	return c.rng
}
