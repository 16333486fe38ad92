package eventcsv

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rickgao/szse-eventlog/internal/model"
)

// Reader decodes full events from a canonical event file.
type Reader struct {
	name string
	r    *csv.Reader
}

// NewReader wraps r and verifies the canonical header. name is used in
// diagnostics only.
func NewReader(name string, r io.Reader) (*Reader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read event header %s: %w", name, err)
	}
	if strings.Join(header, ",") != HeaderLine {
		return nil, fmt.Errorf("event file %s: unexpected header %q", name, strings.Join(header, ","))
	}

	return &Reader{name: name, r: cr}, nil
}

// Next returns the next event, or io.EOF after the last row.
func (r *Reader) Next() (model.Event, error) {
	record, err := r.r.Read()
	if err == io.EOF {
		return model.Event{}, io.EOF
	}
	if err != nil {
		return model.Event{}, fmt.Errorf("read event file %s: %w", r.name, err)
	}
	return Decode(r.name, record)
}

// Decode parses one canonical record, columns in Header order.
func Decode(name string, record []string) (model.Event, error) {
	if len(record) != len(Header) {
		return model.Event{}, fmt.Errorf("event file %s: %d columns, want %d", name, len(record), len(Header))
	}

	channel, err := strconv.ParseInt(record[0], 10, 64)
	if err != nil {
		return model.Event{}, fmt.Errorf("event file %s: invalid ChannelNo %q", name, record[0])
	}
	seq, err := strconv.ParseInt(record[1], 10, 64)
	if err != nil {
		return model.Event{}, fmt.Errorf("event file %s: invalid ApplSeqNum %q", name, record[1])
	}

	return model.Event{
		Channel:      channel,
		Sequence:     seq,
		Kind:         model.Kind(record[2]),
		Symbol:       record[3],
		OrderID:      record[4],
		BidOrderID:   record[5],
		OfferOrderID: record[6],
		Side:         record[7],
		Price:        record[8],
		Qty:          record[9],
		Amt:          record[10],
		OrdType:      record[11],
		ExecType:     record[12],
		TransactTime: record[13],
		SendingTime:  record[14],
		Source:       model.SourceFamily(record[15]),
	}, nil
}

// RawReader streams records of a canonical event file as verbatim lines with
// a parsed merge key. Line order is file order.
type RawReader struct {
	name string
	s    *bufio.Scanner
}

// rawBufferSize bounds one record line. Event rows are short; 1 MiB is far
// past anything the feed produces.
const rawBufferSize = 1 << 20

// NewRawReader wraps r and verifies the canonical header.
func NewRawReader(name string, r io.Reader) (*RawReader, error) {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), rawBufferSize)

	if !s.Scan() {
		if err := s.Err(); err != nil {
			return nil, fmt.Errorf("read event header %s: %w", name, err)
		}
		return nil, fmt.Errorf("event file %s: empty, missing header", name)
	}
	if s.Text() != HeaderLine {
		return nil, fmt.Errorf("event file %s: unexpected header %q", name, s.Text())
	}

	return &RawReader{name: name, s: s}, nil
}

// Next returns the merge key and verbatim line of the next record, or io.EOF
// after the last one.
func (r *RawReader) Next() (model.Key, string, error) {
	if !r.s.Scan() {
		if err := r.s.Err(); err != nil {
			return model.Key{}, "", fmt.Errorf("read event file %s: %w", r.name, err)
		}
		return model.Key{}, "", io.EOF
	}

	line := r.s.Text()
	key, err := parseKey(line)
	if err != nil {
		return model.Key{}, "", fmt.Errorf("event file %s: %w", r.name, err)
	}
	return key, line, nil
}

// parseKey reads ChannelNo and ApplSeqNum off the front of a record line.
func parseKey(line string) (model.Key, error) {
	i := strings.IndexByte(line, ',')
	if i < 0 {
		return model.Key{}, fmt.Errorf("invalid record %q", line)
	}
	rest := line[i+1:]
	j := strings.IndexByte(rest, ',')
	if j < 0 {
		return model.Key{}, fmt.Errorf("invalid record %q", line)
	}

	channel, err := strconv.ParseInt(line[:i], 10, 64)
	if err != nil {
		return model.Key{}, fmt.Errorf("invalid ChannelNo %q", line[:i])
	}
	seq, err := strconv.ParseInt(rest[:j], 10, 64)
	if err != nil {
		return model.Key{}, fmt.Errorf("invalid ApplSeqNum %q", rest[:j])
	}

	return model.Key{Channel: channel, Sequence: seq}, nil
}
