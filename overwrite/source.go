// Package overwrite implements the merge sub-engine that substitutes
// individual (row, col) cell values during scanner iteration, sourced from a
// sorted side-stream of overwrite entries (a CSV file, a SQLite query, or an
// in-memory map).
package overwrite

import (
	"fmt"
	"path/filepath"

	"github.com/go-zsv/zsvcore/internal/zsverr"
)

// Entry is one overwrite tuple: replace (Row, Col) with Value. Timestamp,
// Author and OldValue are optional provenance columns, present only when the
// source's schema named them.
type Entry struct {
	Row       int64
	Col       int64
	Value     string
	Timestamp string
	Author    string
	OldValue  string
}

// Less reports whether e sorts strictly before (row, col) under the
// lexicographic (row, col) ordering the merge protocol requires.
func (e Entry) Less(row, col int64) bool {
	if e.Row != row {
		return e.Row < row
	}
	return e.Col < col
}

// Source yields a monotonically non-decreasing (row, col) sequence of
// overwrite entries. Implementations are single-pass: Next must not be
// called after it returns ok=false, and entries already returned are never
// revisited.
type Source interface {
	Next() (e Entry, ok bool, err error)
	Close() error
}

// AutoDiscoverPath returns the conventional sibling overwrite-cache path for
// a data file: <dir>/.zsv/data/<basename>/overwrites.sqlite3. A scanner may
// probe this path and enable overwrites automatically when it exists.
func AutoDiscoverPath(csvPath string) string {
	dir := filepath.Dir(csvPath)
	base := filepath.Base(csvPath)
	return filepath.Join(dir, ".zsv", "data", base, "overwrites.sqlite3")
}

// sortChecker wraps the sortedness invariant shared by every Source
// implementation: entries must arrive in non-decreasing (row, col) order.
type sortChecker struct {
	have bool
	prev Entry
}

func (c *sortChecker) check(e Entry) error {
	if c.have && e.Less(c.prev.Row, c.prev.Col) {
		return zsverr.New(zsverr.StatusInvalidOption, fmt.Errorf("%w: (%d,%d) after (%d,%d)", zsverr.ErrOverwriteUnsorted, e.Row, e.Col, c.prev.Row, c.prev.Col))
	}
	c.prev = e
	c.have = true
	return nil
}
