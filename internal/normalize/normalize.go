package normalize

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rickgao/szse-eventlog/internal/model"
)

// ParseError reports a malformed numeric field in a raw row.
type ParseError struct {
	Source string // entry name of the offending source
	Field  string
	Value  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("source %s: invalid %s %q", e.Source, e.Field, e.Value)
}

// Options tunes one Normalizer.
type Options struct {
	// Channel, when set, drops rows of every other channel before they
	// reach validation. Filtered rows do not count toward invariants.
	Channel *int64
}

// Normalizer turns the raw rows of one per-symbol file into canonical
// events, lazily and in input order.
type Normalizer struct {
	source string
	symbol string
	family model.SourceFamily
	r      *csv.Reader
	cols   columns
	filter *int64
	empty  bool
}

// New builds a Normalizer for one source. source names the entry for
// diagnostics; symbol is the instrument code derived from it. The header row
// is consumed immediately so column resolution errors surface before any
// event is produced. A zero-byte source is valid and yields no events.
func New(family model.SourceFamily, source, symbol string, r io.Reader, opts Options) (*Normalizer, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		// A zero-byte file is a legitimate empty source, not a failure.
		return &Normalizer{source: source, symbol: symbol, family: family, empty: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("source %s: read header: %w", source, err)
	}

	cols, err := resolveColumns(source, family, header)
	if err != nil {
		return nil, err
	}

	return &Normalizer{
		source: source,
		symbol: symbol,
		family: family,
		r:      cr,
		cols:   cols,
		filter: opts.Channel,
	}, nil
}

// Next returns the next canonical event, skipping rows the channel filter
// drops, or io.EOF once the source is exhausted.
func (n *Normalizer) Next() (model.Event, error) {
	if n.empty {
		return model.Event{}, io.EOF
	}
	for {
		record, err := n.r.Read()
		if err == io.EOF {
			return model.Event{}, io.EOF
		}
		if err != nil {
			return model.Event{}, fmt.Errorf("source %s: %w", n.source, err)
		}

		channel, err := n.parseInt(record, n.cols.channel, colChannel)
		if err != nil {
			return model.Event{}, err
		}
		if n.filter != nil && channel != *n.filter {
			continue
		}

		seq, err := n.parseInt(record, n.cols.seq, colSeq)
		if err != nil {
			return model.Event{}, err
		}

		if n.family == model.FamilyOrder {
			return n.orderEvent(record, channel, seq)
		}
		return n.tickEvent(record, channel, seq)
	}
}

// orderEvent maps an order-submission row. The submission's own sequence
// number doubles as its order identifier.
func (n *Normalizer) orderEvent(record []string, channel, seq int64) (model.Event, error) {
	return model.Event{
		Channel:      channel,
		Sequence:     seq,
		Kind:         model.KindOrder,
		Symbol:       n.symbol,
		OrderID:      strconv.FormatInt(seq, 10),
		Side:         n.field(record, n.cols.side),
		Price:        n.field(record, n.cols.price),
		Qty:          n.field(record, n.cols.qty),
		OrdType:      n.field(record, n.cols.ordType),
		TransactTime: n.field(record, n.cols.transactTime),
		SendingTime:  n.field(record, n.cols.sendingTime),
		Source:       model.FamilyOrder,
	}, nil
}

// tickEvent maps an execution row; the ExecType code decides the kind.
func (n *Normalizer) tickEvent(record []string, channel, seq int64) (model.Event, error) {
	execType := n.field(record, n.cols.execType)
	return model.Event{
		Channel:      channel,
		Sequence:     seq,
		Kind:         model.KindFromExecType(execType),
		Symbol:       n.symbol,
		BidOrderID:   n.field(record, n.cols.bidSeq),
		OfferOrderID: n.field(record, n.cols.offerSeq),
		Price:        n.field(record, n.cols.price),
		Qty:          n.field(record, n.cols.qty),
		Amt:          n.field(record, n.cols.amt),
		ExecType:     execType,
		TransactTime: n.field(record, n.cols.transactTime),
		SendingTime:  n.field(record, n.cols.sendingTime),
		Source:       model.FamilyTick,
	}, nil
}

func (n *Normalizer) field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func (n *Normalizer) parseInt(record []string, idx int, name string) (int64, error) {
	raw := n.field(record, idx)
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &ParseError{Source: n.source, Field: name, Value: raw}
	}
	return v, nil
}
