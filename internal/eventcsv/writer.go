package eventcsv

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/rickgao/szse-eventlog/internal/model"
)

// Writer writes canonical event files. Not safe for concurrent use; every
// intermediate file has exactly one producing goroutine.
type Writer struct {
	f *os.File
	w *csv.Writer
}

// Create opens path for writing and emits the header row.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create event file %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		f.Close()
		return nil, fmt.Errorf("write event header %s: %w", path, err)
	}

	return &Writer{f: f, w: w}, nil
}

// WriteEvent appends one event row.
func (w *Writer) WriteEvent(e model.Event) error {
	return w.w.Write(Encode(e))
}

// Close flushes buffered rows and closes the file. The flush error, if any,
// wins over the close error so a full disk is not masked.
func (w *Writer) Close() error {
	w.w.Flush()
	flushErr := w.w.Error()
	closeErr := w.f.Close()
	if flushErr != nil {
		return fmt.Errorf("flush event file %s: %w", w.f.Name(), flushErr)
	}
	return closeErr
}

// Name returns the path the writer was created with.
func (w *Writer) Name() string { return w.f.Name() }

// Encode renders an event as a canonical record, columns in Header order.
func Encode(e model.Event) []string {
	return []string{
		strconv.FormatInt(e.Channel, 10),
		strconv.FormatInt(e.Sequence, 10),
		string(e.Kind),
		e.Symbol,
		e.OrderID,
		e.BidOrderID,
		e.OfferOrderID,
		e.Side,
		e.Price,
		e.Qty,
		e.Amt,
		e.OrdType,
		e.ExecType,
		e.TransactTime,
		e.SendingTime,
		string(e.Source),
	}
}
