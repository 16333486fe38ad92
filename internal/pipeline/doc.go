// Package pipeline runs one merge job end to end: enumerate both raw
// archives, normalize and validate every per-symbol source into a sorted
// event file under the work directory, merge the event files into the
// configured artifacts, then write the channel index and optionally load
// the result into the database.
//
// The run is fail-fast: the first invariant violation or I/O error aborts
// everything, and no final artifact is published for the failed run.
package pipeline
