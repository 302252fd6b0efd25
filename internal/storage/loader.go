package storage

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// CopyFn writes one batch of rows, aligned to columns, and returns how many
// rows the backend reports as written.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// LoadBatches drains in, calling copyFn once per batchSize rows and once for
// the remainder when in is closed. It returns the running total and the first
// error from copyFn or ctx. Each flushed batch is logged at debug level with
// its throughput; a nil logger discards those lines.
func LoadBatches(
	ctx context.Context,
	logger *slog.Logger,
	columns []string,
	in <-chan []any,
	batchSize int,
	copyFn CopyFn,
) (int64, error) {
	switch {
	case batchSize <= 0:
		return 0, errors.New("batchSize must be > 0")
	case copyFn == nil:
		return 0, errors.New("copyFn must not be nil")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	b := batcher{columns: columns, size: batchSize, copy: copyFn, log: logger, started: time.Now()}
	for {
		select {
		case <-ctx.Done():
			return b.total, ctx.Err()
		case row, ok := <-in:
			if !ok {
				err := b.flush(ctx)
				logger.Debug("loader: done", "batches", b.batches, "rows", b.total)
				return b.total, err
			}
			b.pending = append(b.pending, row)
			if len(b.pending) == b.size {
				if err := b.flush(ctx); err != nil {
					return b.total, err
				}
			}
		}
	}
}

type batcher struct {
	columns []string
	size    int
	copy    CopyFn
	log     *slog.Logger

	pending [][]any
	total   int64
	batches int
	started time.Time
}

// flush hands the pending rows to copy. The slice is not reused afterwards,
// so a backend may keep it.
func (b *batcher) flush(ctx context.Context) error {
	if len(b.pending) == 0 {
		return nil
	}
	rows := b.pending
	b.pending = make([][]any, 0, b.size)

	t0 := time.Now()
	n, err := b.copy(ctx, b.columns, rows)
	b.total += n
	if err != nil {
		b.log.Error("loader: batch failed", "batch", b.batches+1, "size", len(rows), "written", n, "err", err)
		return err
	}
	b.batches++

	took := time.Since(t0)
	var rps int64
	if took > 0 {
		rps = int64(float64(n) / took.Seconds())
	}
	b.log.Debug("loader: batch written",
		"batch", b.batches,
		"rows", n,
		"total", b.total,
		"rps", rps,
		"elapsed", time.Since(b.started).Truncate(time.Millisecond),
	)
	return nil
}
