package pipeline

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"time"
)

// Summary reports what one run read and wrote.
type Summary struct {
	RunID   string
	Job     string
	Sources []SourceInfo
	Tables  []TableCount   // in write order
	Dropped map[string]int // "<domain>.<column>" -> tokens without id
	Elapsed time.Duration
}

// SourceInfo is the provenance of one loaded file.
type SourceInfo struct {
	Path        string
	Rows        int
	Bytes       int
	Fingerprint uint64
}

// TableCount is the number of rows the store acknowledged for a table.
type TableCount struct {
	Table string
	Rows  int64
}

// Rows returns the rows written to table, or -1 when it was not written.
func (s *Summary) Rows(table string) int64 {
	for _, t := range s.Tables {
		if t.Table == table {
			return t.Rows
		}
	}
	return -1
}

// WriteTo prints the summary as plain text.
func (s *Summary) WriteTo(w io.Writer) (int64, error) {
	var n int64
	pr := func(format string, a ...any) error {
		k, err := fmt.Fprintf(w, format, a...)
		n += int64(k)
		return err
	}
	if err := pr("run %s (job %s) finished in %s\n", s.RunID, s.Job, s.Elapsed.Truncate(time.Millisecond)); err != nil {
		return n, err
	}
	for _, src := range s.Sources {
		if err := pr("  source %-40s rows=%-8d bytes=%-10d xxh3=%016x\n", src.Path, src.Rows, src.Bytes, src.Fingerprint); err != nil {
			return n, err
		}
	}
	for _, t := range s.Tables {
		if err := pr("  table  %-40s rows=%d\n", t.Table, t.Rows); err != nil {
			return n, err
		}
	}
	for _, col := range slices.Sorted(maps.Keys(s.Dropped)) {
		if err := pr("  dropped tokens %-32s %d\n", col, s.Dropped[col]); err != nil {
			return n, err
		}
	}
	return n, nil
}
