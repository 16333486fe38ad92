// Package model defines the canonical event shape shared across the merger.
//
// Conventions:
//   - Channel and sequence numbers: int64, parsed from ChannelNo/ApplSeqNum
//   - Prices, quantities, amounts, timestamps: verbatim feed strings
//     (normalization never reinterprets them, so nothing is lost in transit)
//   - Unset optional fields: empty string
package model
