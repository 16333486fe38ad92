// Package loader imports a merged event log into the TimescaleDB events
// table. Rows are inserted in batches with ON CONFLICT DO NOTHING on
// (channel_no, appl_seq_num, source, symbol), so reloading the same log is
// idempotent. Sequence numbers repeated across different sources load as
// separate rows; a repeat within one source collapses to a single row.
package loader
