package merge

import (
	"io"
	"os"

	"github.com/rickgao/szse-eventlog/internal/eventcsv"
	"github.com/rickgao/szse-eventlog/internal/model"
)

// cursor is one open input of a batch merge: the file handle, the reader,
// and the peeked next record. Owned exclusively by the merge loop.
type cursor struct {
	index int // position in the caller's input list; the tie-break
	path  string
	f     *os.File
	r     *eventcsv.RawReader

	key  model.Key
	line string
}

// openCursor opens path and primes the first record. ok is false when the
// file holds a header but no records.
func openCursor(index int, path string) (c *cursor, ok bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, false, err
	}

	r, err := eventcsv.NewRawReader(path, f)
	if err != nil {
		f.Close()
		return nil, false, err
	}

	c = &cursor{index: index, path: path, f: f, r: r}
	ok, err = c.advance()
	if err != nil {
		f.Close()
		return nil, false, err
	}
	if !ok {
		f.Close()
		return nil, false, nil
	}
	return c, true, nil
}

// advance peeks the next record into the cursor. ok is false at exhaustion.
func (c *cursor) advance() (ok bool, err error) {
	key, line, err := c.r.Next()
	if err == io.EOF {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	c.key = key
	c.line = line
	return true, nil
}

func (c *cursor) close() error { return c.f.Close() }

// less orders cursors by (channel, sequence, source index).
func (c *cursor) less(other *cursor) bool {
	if c.key != other.key {
		return c.key.Less(other.key)
	}
	return c.index < other.index
}
