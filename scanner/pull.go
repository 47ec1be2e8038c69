package scanner

import (
	"io"

	"github.com/go-zsv/zsvcore/internal/zsverr"
)

// Pull re-exposes the push Scanner as a single-row-at-a-time iterator. It
// runs the scanner on a dedicated goroutine synchronized by an unbuffered
// channel, so exactly one of {caller, scanner} is ever running — the same
// single-threaded, cooperative discipline as push mode, just with the
// scanner's call stack parked in a goroutine between rows instead of
// hand-rolled continuation state.
type Pull struct {
	sc       *Scanner
	rows     chan []Cell
	errc     chan error
	abort    chan struct{}
	finished bool
	err      error
}

type pullSink struct {
	rows  chan<- []Cell
	abort <-chan struct{}
	cur   []Cell
}

// Cell deep-copies every cell, including row 0 (the header): the snapshot
// must survive past the point where the scanner's next chunk overwrites
// the buffer, and the caller may hold a yielded row for longer than one
// Next call.
func (p *pullSink) Cell(b []byte, f CellFlags) {
	p.cur = append(p.cur, Cell{Str: string(b), Flags: f})
}

func (p *pullSink) Row() bool {
	row := p.cur
	p.cur = nil
	select {
	case p.rows <- row:
		return false
	case <-p.abort:
		return true
	}
}

func (p *pullSink) Overflow(int) {}

func (p *pullSink) Error(zsverr.Status, error, byte, int64) {}

// NewPull builds a Scanner in ModeDelimPull over r and starts its drive
// goroutine.
func NewPull(cfg Config, r io.Reader) (*Pull, error) {
	rows := make(chan []Cell)
	abort := make(chan struct{})
	sink := &pullSink{rows: rows, abort: abort}
	sc, err := New(cfg, ModeDelimPull, r, sink)
	if err != nil {
		return nil, err
	}
	p := &Pull{sc: sc, rows: rows, errc: make(chan error, 1), abort: abort}
	go p.drive()
	return p, nil
}

func (p *Pull) drive() {
	defer close(p.rows)
	for {
		status, err := p.sc.ParseMore()
		if err != nil {
			p.errc <- err
			return
		}
		switch status {
		case zsverr.StatusNoMoreInput:
			_, ferr := p.sc.Finish()
			p.errc <- ferr
			return
		case zsverr.StatusCancelled, zsverr.StatusMaxRowsRead:
			p.errc <- nil
			return
		}
	}
}

// Next blocks until the next row is available, returning ok=false once the
// input (and any trailing partial row) is exhausted or the scan was
// cancelled; check Err in that case for a non-nil terminal error.
func (p *Pull) Next() (row []Cell, ok bool) {
	if p.finished {
		return nil, false
	}
	row, open := <-p.rows
	if !open {
		p.finished = true
		p.err = <-p.errc
		return nil, false
	}
	return row, true
}

// Err returns the terminal error observed after Next returns ok=false, if
// any.
func (p *Pull) Err() error { return p.err }

// Close requests the drive goroutine stop at its next suspension point and
// drains any row left in flight.
func (p *Pull) Close() {
	select {
	case <-p.abort:
	default:
		close(p.abort)
	}
	for range p.rows {
	}
}
