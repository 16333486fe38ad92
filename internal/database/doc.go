// Package database manages the TimescaleDB connection pool used to load
// merged event logs into the events hypertable.
package database
