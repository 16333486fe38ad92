// Package archive gives the pipeline uniform access to raw per-symbol CSV
// files, whether they sit inside a zip container or have already been
// extracted into a plain directory.
//
// The merger core only depends on the Reader interface: enumerate CSV entries
// in a stable order, stream one entry at a time. It never materializes an
// entire archive.
package archive
