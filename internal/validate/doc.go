// Package validate enforces per-source feed invariants while a normalized
// event stream is drained: every source speaks exactly one broadcast channel,
// and its sequence numbers never decrease (duplicates are allowed).
//
// Checks run eagerly, event by event; sources can be arbitrarily large, so
// nothing is buffered. The validator also reports the channel a source
// resolved to, which is how the partitioner groups sources without a second
// pass over the data.
package validate
