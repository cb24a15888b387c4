// Package pipeline orchestrates scenario generation end to end: it
// parses a generator spec, expands its instantiation block through the
// template registry, applies guards, wires interactions, applies
// post-hoc modifications, fills in background noise and spatial
// containers, and finally computes the visibility mapping that yields
// the agent-facing scenario.
//
// An Instantiate call is pure given (spec, seed, registry, params):
// the pipeline holds no state across calls, so independent invocations
// may run concurrently as long as the registry is read-only.
package pipeline
