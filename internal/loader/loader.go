package loader

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rickgao/szse-eventlog/internal/eventcsv"
	"github.com/rickgao/szse-eventlog/internal/model"
)

// DefaultBatchSize is how many events one insert batch carries.
const DefaultBatchSize = 1000

// Feed values are carried verbatim, so every optional column is text.
const createEventsTable = `
CREATE TABLE IF NOT EXISTS events (
	channel_no     BIGINT NOT NULL,
	appl_seq_num   BIGINT NOT NULL,
	event          TEXT   NOT NULL,
	symbol         TEXT   NOT NULL,
	order_id       TEXT,
	bid_order_id   TEXT,
	offer_order_id TEXT,
	side           TEXT,
	price          TEXT,
	qty            TEXT,
	amt            TEXT,
	ord_type       TEXT,
	exec_type      TEXT,
	transact_time  TEXT,
	sending_time   TEXT,
	source         TEXT   NOT NULL,
	PRIMARY KEY (channel_no, appl_seq_num, source, symbol)
)`

const insertEvent = `
INSERT INTO events (
	channel_no, appl_seq_num, event, symbol,
	order_id, bid_order_id, offer_order_id,
	side, price, qty, amt, ord_type, exec_type,
	transact_time, sending_time, source
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
ON CONFLICT (channel_no, appl_seq_num, source, symbol) DO NOTHING
`

// Loader writes merged event logs into the events table.
type Loader struct {
	db        *pgxpool.Pool
	logger    *slog.Logger
	batchSize int
}

// Stats summarizes one load.
type Stats struct {
	Read      int64
	Inserted  int64
	Conflicts int64
}

// New creates a Loader. batchSize below 1 uses DefaultBatchSize.
func New(db *pgxpool.Pool, batchSize int, logger *slog.Logger) *Loader {
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{db: db, logger: logger, batchSize: batchSize}
}

// EnsureSchema creates the events table when missing.
func (l *Loader) EnsureSchema(ctx context.Context) error {
	if _, err := l.db.Exec(ctx, createEventsTable); err != nil {
		return fmt.Errorf("create events table: %w", err)
	}
	return nil
}

// LoadFile streams one merged event file into the events table.
func (l *Loader) LoadFile(ctx context.Context, path string) (Stats, error) {
	var stats Stats

	f, err := os.Open(path)
	if err != nil {
		return stats, fmt.Errorf("load open %s: %w", path, err)
	}
	defer f.Close()

	r, err := eventcsv.NewReader(path, f)
	if err != nil {
		return stats, fmt.Errorf("load read %s: %w", path, err)
	}

	start := time.Now()
	batch := make([]model.Event, 0, l.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		conflicts, err := l.insertBatch(ctx, batch)
		if err != nil {
			return fmt.Errorf("load insert %s: %w", path, err)
		}
		stats.Inserted += int64(len(batch) - conflicts)
		stats.Conflicts += int64(conflicts)
		batch = batch[:0]
		return nil
	}

	for {
		e, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("load read %s: %w", path, err)
		}
		stats.Read++
		batch = append(batch, e)
		if len(batch) >= l.batchSize {
			if err := flush(); err != nil {
				return stats, err
			}
		}
	}
	if err := flush(); err != nil {
		return stats, err
	}

	l.logger.Info("load complete",
		"path", path,
		"read", stats.Read,
		"inserted", stats.Inserted,
		"conflicts", stats.Conflicts,
		"duration", time.Since(start),
	)
	return stats, nil
}

// insertBatch inserts events using pgx.Batch with ON CONFLICT DO NOTHING.
func (l *Loader) insertBatch(ctx context.Context, events []model.Event) (conflicts int, err error) {
	batch := &pgx.Batch{}
	for _, e := range events {
		batch.Queue(insertEvent, eventArgs(e)...)
	}

	results := l.db.SendBatch(ctx, batch)
	defer results.Close()

	for range events {
		ct, err := results.Exec()
		if err != nil {
			return 0, err
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		}
	}

	return conflicts, nil
}

// eventArgs lays out one event as insert parameters, NULLing empty
// optional fields.
func eventArgs(e model.Event) []any {
	return []any{
		e.Channel,
		e.Sequence,
		string(e.Kind),
		e.Symbol,
		nullable(e.OrderID),
		nullable(e.BidOrderID),
		nullable(e.OfferOrderID),
		nullable(e.Side),
		nullable(e.Price),
		nullable(e.Qty),
		nullable(e.Amt),
		nullable(e.OrdType),
		nullable(e.ExecType),
		nullable(e.TransactTime),
		nullable(e.SendingTime),
		string(e.Source),
	}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
