package scanner

import (
	"fmt"

	"github.com/go-zsv/zsvcore/internal/zsverr"
)

// wrapHeaderPolicies installs, outermost first, the skip-rows,
// blank-header-skip, and header-span-collation sinks ahead of the user's
// sink — the three orthogonal, independently-switchable header policies
// described for the scanner. Insert-header-row is not a sink concern; it
// is handled by priming the buffer before the first real byte is scanned.
func wrapHeaderPolicies(cfg Config, next Sink) Sink {
	s := next
	if cfg.HeaderSpan > 1 {
		s = newHeaderSpanSink(s, cfg.HeaderSpan)
	}
	if !cfg.KeepEmptyHeaderRows {
		s = &blankSkipSink{next: s, active: true}
	}
	if cfg.RowsToIgnore > 0 {
		s = &skipRowsSink{next: s, remaining: cfg.RowsToIgnore}
	}
	return s
}

// skipRowsSink discards the first `remaining` raw rows entirely before
// forwarding anything downstream.
type skipRowsSink struct {
	next      Sink
	remaining int
}

func (s *skipRowsSink) Cell(b []byte, f CellFlags) {
	if s.remaining > 0 {
		return
	}
	s.next.Cell(b, f)
}

func (s *skipRowsSink) Row() bool {
	if s.remaining > 0 {
		s.remaining--
		return false
	}
	return s.next.Row()
}

func (s *skipRowsSink) Overflow(n int) {
	if s.remaining == 0 {
		s.next.Overflow(n)
	}
}

func (s *skipRowsSink) Error(status zsverr.Status, err error, b byte, off int64) {
	s.next.Error(status, err, b, off)
}

type cellRec struct {
	b []byte
	f CellFlags
}

// blankSkipSink discards leading rows whose every cell has zero length,
// until the first non-blank row, then emits a one-time warning and turns
// itself off.
type blankSkipSink struct {
	next    Sink
	active  bool
	skipped int
	buf     []cellRec
}

func (s *blankSkipSink) Cell(b []byte, f CellFlags) {
	if !s.active {
		s.next.Cell(b, f)
		return
	}
	s.buf = append(s.buf, cellRec{b, f})
}

func (s *blankSkipSink) Row() bool {
	if !s.active {
		return s.next.Row()
	}
	blank := len(s.buf) > 0
	for _, c := range s.buf {
		if len(c.b) != 0 {
			blank = false
			break
		}
	}
	if blank {
		s.skipped++
		s.buf = s.buf[:0]
		return false
	}
	s.active = false
	if s.skipped > 0 {
		s.next.Error(zsverr.StatusOK, fmt.Errorf("skipped %d leading blank header row(s)", s.skipped), 0, 0)
	}
	for _, c := range s.buf {
		s.next.Cell(c.b, c.f)
	}
	s.buf = s.buf[:0]
	return s.next.Row()
}

func (s *blankSkipSink) Overflow(n int) {
	if !s.active {
		s.next.Overflow(n)
	}
}

func (s *blankSkipSink) Error(status zsverr.Status, err error, b byte, off int64) {
	s.next.Error(status, err, b, off)
}

// headerSpanSink accumulates `span` consecutive rows into one logical
// header row, column j being the space-joined concatenation of column j
// across the accumulated rows, then delivers the collated row once.
type headerSpanSink struct {
	next     Sink
	span     int
	rowsSeen int
	cols     [][]byte
	curCells [][]byte
}

func newHeaderSpanSink(next Sink, span int) *headerSpanSink {
	return &headerSpanSink{next: next, span: span}
}

func (s *headerSpanSink) Cell(b []byte, f CellFlags) {
	if s.rowsSeen >= s.span {
		s.next.Cell(b, f)
		return
	}
	s.curCells = append(s.curCells, append([]byte(nil), b...))
}

func (s *headerSpanSink) Row() bool {
	if s.rowsSeen >= s.span {
		return s.next.Row()
	}
	for j, c := range s.curCells {
		switch {
		case j >= len(s.cols):
			s.cols = append(s.cols, c)
		case len(s.cols[j]) == 0:
			s.cols[j] = c
		default:
			s.cols[j] = append(append(s.cols[j], ' '), c...)
		}
	}
	s.curCells = s.curCells[:0]
	s.rowsSeen++
	if s.rowsSeen < s.span {
		return false
	}
	for _, c := range s.cols {
		s.next.Cell(c, QuoteClosed)
	}
	return s.next.Row()
}

func (s *headerSpanSink) Overflow(n int) {
	if s.rowsSeen >= s.span {
		s.next.Overflow(n)
	}
}

func (s *headerSpanSink) Error(status zsverr.Status, err error, b byte, off int64) {
	s.next.Error(status, err, b, off)
}
