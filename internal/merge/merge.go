package merge

import (
	"bufio"
	"container/heap"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/szse-eventlog/internal/eventcsv"
)

// ErrNoSources is returned when a merge is invoked with no inputs.
var ErrNoSources = errors.New("no sources to merge")

// cancelCheckInterval is how many emitted records pass between context
// checks inside a batch merge loop.
const cancelCheckInterval = 4096

// Merger merges sorted event files under an open-handle budget.
type Merger struct {
	// MaxOpen is the handle budget for one batch merge (>= 2).
	MaxOpen int

	// Workers bounds concurrent batch merges within one round. 1 keeps
	// the handle budget strict across the whole merge.
	Workers int

	logger *slog.Logger
}

// New creates a Merger. maxOpen below 2 is raised to 2; workers below 1 to 1.
func New(maxOpen, workers int, logger *slog.Logger) *Merger {
	if maxOpen < 2 {
		maxOpen = 2
	}
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Merger{MaxOpen: maxOpen, Workers: workers, logger: logger}
}

// Merge merges inputs (each internally sorted, in tie-break order) into
// outPath. Exactly one input is moved into place without any merge work.
// On error no usable output is produced; temporaries may remain.
func (m *Merger) Merge(ctx context.Context, inputs []string, outPath string) error {
	if len(inputs) == 0 {
		return ErrNoSources
	}

	paths := inputs
	for round := 0; len(paths) > 1; round++ {
		batches := batch(paths, m.MaxOpen)
		m.logger.Debug("merge round",
			"out", outPath,
			"round", round,
			"inputs", len(paths),
			"batches", len(batches),
		)

		next := make([]string, len(batches))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(m.Workers)

		for i, b := range batches {
			if len(b) == 1 {
				// Odd remainder: passes through to the next round
				// unchanged, preserving its position.
				next[i] = b[0]
				continue
			}
			merged := fmt.Sprintf("%s.merge_%d_%d.tmp", outPath, round, i)
			next[i] = merged
			b := b
			g.Go(func() error {
				return mergeBatch(gctx, b, merged)
			})
		}

		if err := g.Wait(); err != nil {
			return err
		}
		paths = next
	}

	return MoveFile(paths[0], outPath)
}

// batch splits paths into consecutive groups of at most size, keeping order.
func batch(paths []string, size int) [][]string {
	var out [][]string
	for len(paths) > size {
		out = append(out, paths[:size])
		paths = paths[size:]
	}
	return append(out, paths)
}

// mergeBatch runs one base merge: every input open at once, a min-heap of
// cursors, smallest key out first.
func mergeBatch(ctx context.Context, inputs []string, outPath string) error {
	cursors := make([]*cursor, 0, len(inputs))
	defer func() {
		for _, c := range cursors {
			c.close()
		}
	}()

	h := make(cursorHeap, 0, len(inputs))
	for i, path := range inputs {
		c, ok, err := openCursor(i, path)
		if err != nil {
			return fmt.Errorf("merge open %s: %w", path, err)
		}
		if !ok {
			continue
		}
		cursors = append(cursors, c)
		h = append(h, c)
	}
	heap.Init(&h)

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("merge create %s: %w", outPath, err)
	}
	w := bufio.NewWriterSize(out, 256*1024)

	fail := func(err error) error {
		out.Close()
		return err
	}

	if _, err := w.WriteString(eventcsv.HeaderLine + "\n"); err != nil {
		return fail(fmt.Errorf("merge write %s: %w", outPath, err))
	}

	var emitted int64
	for h.Len() > 0 {
		if emitted%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return fail(err)
			}
		}

		c := h[0]
		if _, err := w.WriteString(c.line); err != nil {
			return fail(fmt.Errorf("merge write %s: %w", outPath, err))
		}
		if err := w.WriteByte('\n'); err != nil {
			return fail(fmt.Errorf("merge write %s: %w", outPath, err))
		}
		emitted++

		ok, err := c.advance()
		if err != nil {
			return fail(fmt.Errorf("merge read: %w", err))
		}
		if ok {
			heap.Fix(&h, 0)
		} else {
			heap.Pop(&h)
		}
	}

	if err := w.Flush(); err != nil {
		return fail(fmt.Errorf("merge flush %s: %w", outPath, err))
	}
	return out.Close()
}

// MoveFile renames src to dst, copying when rename crosses filesystems.
// dst appears either complete or not at all when both sit on one filesystem.
func MoveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("move %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("move create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("move copy %s: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("move close %s: %w", dst, err)
	}
	return os.Remove(src)
}
