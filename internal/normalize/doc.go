// Package normalize maps raw per-symbol feed rows onto the canonical event
// shape.
//
// Both source families are handled by one Normalizer: order-submission rows
// become ORDER events, tick rows become TRADE/CANCEL/TICK events depending on
// their ExecType code. Rows are processed strictly in input order, one at a
// time; nothing is buffered beyond the current row. Columns are located by
// header name, never by position.
package normalize
