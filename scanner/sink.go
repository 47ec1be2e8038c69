package scanner

import "github.com/go-zsv/zsvcore/internal/zsverr"

// Sink is the capability interface cells and rows are routed through —
// the Go rendering of the original cell/row/overflow/error callback quad.
// Implementations must not retain byte slices passed to Cell beyond the
// call; copy if the data must outlive it.
type Sink interface {
	// Cell is invoked once per emitted cell, in row order.
	Cell(b []byte, flags CellFlags)
	// Row is invoked after all cells of a row have been delivered. A true
	// return requests cancellation; the scanner checks this after every
	// row and chunk refill and stops with StatusCancelled.
	Row() (cancel bool)
	// Overflow is invoked at most once per row, when more than
	// Config.MaxColumns cells were seen; n is the count of dropped cells.
	Overflow(n int)
	// Error reports a non-fatal diagnostic. Fatal errors are instead
	// returned directly from ParseMore/Finish as a status.
	Error(status zsverr.Status, err error, offendingByte byte, cumOffset int64)
}

// SinkFuncs adapts plain functions to the Sink interface, for callers who
// only care about a subset of events.
type SinkFuncs struct {
	CellFunc     func(b []byte, flags CellFlags)
	RowFunc      func() (cancel bool)
	OverflowFunc func(n int)
	ErrorFunc    func(status zsverr.Status, err error, offendingByte byte, cumOffset int64)
}

func (s SinkFuncs) Cell(b []byte, flags CellFlags) {
	if s.CellFunc != nil {
		s.CellFunc(b, flags)
	}
}

func (s SinkFuncs) Row() bool {
	if s.RowFunc != nil {
		return s.RowFunc()
	}
	return false
}

func (s SinkFuncs) Overflow(n int) {
	if s.OverflowFunc != nil {
		s.OverflowFunc(n)
	}
}

func (s SinkFuncs) Error(status zsverr.Status, err error, offendingByte byte, cumOffset int64) {
	if s.ErrorFunc != nil {
		s.ErrorFunc(status, err, offendingByte, cumOffset)
	}
}

// RowRecorder is a Sink that accumulates emitted rows as [][]Cell, each
// cell's Str cloned so it survives past the next ParseMore call. Intended
// for tests and small inputs; not appropriate for multi-gigabyte streams.
type RowRecorder struct {
	Rows    [][]Cell
	current []Cell
}

func (r *RowRecorder) Cell(b []byte, flags CellFlags) {
	r.current = append(r.current, Cell{Str: string(b), Flags: flags})
}

func (r *RowRecorder) Row() bool {
	r.Rows = append(r.Rows, r.current)
	r.current = nil
	return false
}

func (r *RowRecorder) Overflow(int) {}

func (r *RowRecorder) Error(zsverr.Status, error, byte, int64) {}
