// Package specnode implements the placeholder substrate of the spec
// language: a typed tree built from YAML documents, where tagged scalars
// become placeholder nodes that defer work to a later pass.
//
// The lifecycle has three distinct passes:
//
//  1. Hydrate: raw yaml.Node -> *Node. File inclusions (!include) are
//     resolved eagerly here; tag markers become Eval, Quoted or Ref nodes.
//  2. Eval: *Node -> concrete Go values. Eval nodes are parsed as HCL
//     expressions and evaluated against a lexical Scope and a closed
//     function table; Ref nodes are looked up in the Scope; Quoted nodes
//     pass through as their source text, untouched.
//  3. Dehydrate: the inverse of hydrate, used for persistence and the
//     `xenogen hydrate` debugging command.
//
// Hydration and evaluation are deliberately separate: a Quoted node must
// survive evaluation unchanged, because its expression belongs to a later
// consumer (e.g. a reaction-rate compiler), not to this package.
package specnode
