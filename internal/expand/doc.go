// Package expand implements the template expansion engine: it turns a
// registered template plus a namespace, parameters and a seed into
// namespace-qualified molecules and reactions, recursing through nested
// instantiation directives and bounded replication loops.
//
// Expansion is macro-style with hygiene: every entity name is prefixed
// with its instantiation's namespace (`m.<ns>.<local>`, `r.<ns>.<local>`)
// so that nested and replicated instantiations can never collide, and
// every internal reference is rewritten to the qualified form.
package expand
