// Package eventcsv reads and writes the canonical event file format: a CSV
// with a fixed 16-column header, one row per normalized event, unset optional
// fields as empty strings.
//
// Two readers are provided. Reader decodes full events (loader, tests).
// RawReader only parses the (ChannelNo, ApplSeqNum) merge key and hands the
// record line through verbatim, which is what the k-way merge wants: rounds
// copy bytes, so multi-round output is byte-identical to a single-pass merge.
package eventcsv
