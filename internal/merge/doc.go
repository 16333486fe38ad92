// Package merge produces one globally ordered event file from N
// independently sorted event files, honoring an open-handle budget smaller
// than N.
//
// The base merge keeps one cursor per input in a min-heap keyed by
// (channel, sequence, source index); the source index, the input's position
// in the caller's list, breaks ties deterministically. When the input count
// exceeds the budget, inputs are reduced in rounds: consecutive batches of at
// most MaxOpen files are merged independently, and the round's outputs (still
// in input order) feed the next round. Because every round applies the same
// comparator and preserves relative input order, the multi-round result is
// byte-identical to a single-pass merge for any budget >= 2.
//
// A failure anywhere aborts the whole merge; temporaries may remain for
// diagnostics but are never authoritative.
package merge
