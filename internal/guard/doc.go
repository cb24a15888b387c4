// Package guard runs global structural checks over an assembled ground
// truth after each expansion step. A guard is a pure function of the
// ground truth; it either passes or returns a Violation carrying the
// guard name, a message, and an optional prune list. The Runner applies
// one of three recovery policies when a guard fires: reject (abort),
// retry (reseed and re-expand up to a bound), or prune (drop the named
// elements and recheck).
package guard
