package specnode

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

// Eval resolves a typed tree into a concrete Go value tree.
//
// Eval nodes are parsed as HCL expressions and evaluated against the
// context's scope and function table. Ref nodes are resolved by dotted
// scope lookup. Quoted nodes dehydrate to their source text, untouched;
// that string is someone else's expression, not ours. Maps are walked in
// document-key order so that seeded draws happen in a stable sequence.
func Eval(n *Node, ctx *Context) (any, error) {
	switch n.Kind {
	case KindScalar:
		return n.Value, nil

	case KindQuoted:
		return n.Source, nil

	case KindRef:
		v, ok := ctx.Scope.Lookup(n.Source)
		if !ok {
			return nil, &ReferenceNotFoundError{Name: n.Source}
		}
		return v, nil

	case KindEval:
		return EvalExpression(n.Source, ctx)

	case KindMap:
		out := make(map[string]any, len(n.Keys))
		for _, k := range n.Keys {
			v, err := Eval(n.Children[k], ctx)
			if err != nil {
				return nil, err
			}
			out[k] = v
		}
		return out, nil

	case KindSeq:
		out := make([]any, len(n.Items))
		for i, item := range n.Items {
			v, err := Eval(item, ctx)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil

	default:
		return nil, fmt.Errorf("eval: unhandled node kind %s", n.Kind)
	}
}

// EvalExpression parses and evaluates a single expression string against
// the context. The grammar is HCL's expression syntax; the only names
// visible are the scope's bindings and the closed function table, so an
// expression can never reach outside the context it was handed.
func EvalExpression(src string, ctx *Context) (any, error) {
	expr, diags := hclsyntax.ParseExpression([]byte(src), "expr", hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return nil, &EvalError{Source: src, Err: diags}
	}

	ectx := ctx.evalContext()

	val, diags := expr.Value(ectx)
	if diags.HasErrors() {
		return nil, &EvalError{Source: src, Err: diags}
	}

	out, err := fromCty(val)
	if err != nil {
		return nil, &EvalError{Source: src, Err: err}
	}
	return out, nil
}

// evalContext builds the HCL evaluation context from the scope chain and
// the bound function table. Bindings that cannot be represented as cty
// values (e.g. nodes awaiting a later pass) are simply not exposed.
func (c *Context) evalContext() *hcl.EvalContext {
	flat := c.Scope.Flatten()
	vars := make(map[string]cty.Value, len(flat))
	for name, v := range flat {
		cv, err := toCty(v)
		if err != nil {
			continue
		}
		vars[name] = cv
	}
	return &hcl.EvalContext{Variables: vars, Functions: c.funcs}
}
