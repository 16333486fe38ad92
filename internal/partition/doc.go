// Package partition plans and runs merge groups over per-source event
// files.
//
// Combined mode places every source in one group feeding a single output
// file. Per-channel mode groups sources by their resolved channel, one
// artifact per channel named channel_<n>.csv, channels in ascending order.
// Each group merges into a staging file under the work directory and is
// published to its final location only on success, so a failed run never
// leaves a partial artifact behind.
package partition
