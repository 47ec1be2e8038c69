package scanner

import (
	"io"
	"time"

	"github.com/go-zsv/zsvcore/internal/simd"
	"github.com/go-zsv/zsvcore/internal/zsverr"
)

// FilterFunc optionally pre-processes freshly read bytes in place (e.g.
// UTF-8 repair). It must return n' <= n.
type FilterFunc func(buf []byte, n int) (nPrime int)

// Scanner converts a byte stream into logical rows of zero-copy cells. It
// is not safe for concurrent use: exactly one goroutine may call ParseMore
// or Finish at a time, and Sink callbacks must not re-enter the Scanner
// except through the read-only accessors Sink implementations are given.
type Scanner struct {
	cfg   Config
	mode  Mode
	start time.Time

	started bool // typestate: true once the first ParseMore call begins

	input  io.Reader
	filter FilterFunc
	sink   Sink

	buf              []byte
	filled           int
	rowStart         int
	cellStart        int
	cumScannedLength int64
	partialRowLength int

	quoted       CellFlags
	quoteClosePos int
	skipPos      int
	last         byte

	hadBOM      bool
	checkedBOM  bool
	finished    bool
	abortFlag   bool
	hitMaxRows  bool
	bufferExceeded bool
	discardRow     bool

	cellsThisRow    int
	overflowThisRow int
	dataRowCount    int64

	fixedOffsets []int
	masks        simd.Masks

	insertHeaderPending bool
	insertHeaderBytes   []byte

	lastProgressRows int64
	lastProgressTime time.Time
}

// New constructs a Scanner reading from r and routing rows to sink (after
// the header policies in cfg have been applied). cfg.Validate is run
// first; a non-nil error here is always StatusInvalidOption.
func New(cfg Config, mode Mode, r io.Reader, sink Sink) (*Scanner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Scanner{
		cfg:           cfg,
		mode:          mode,
		input:         r,
		sink:          wrapHeaderPolicies(cfg, sink),
		buf:           make([]byte, cfg.bufferSize()),
		quoteClosePos: -1,
		skipPos:       -1,
		start:         time.Time{},
	}
	if cfg.InsertHeaderRow != "" {
		s.insertHeaderPending = true
		s.insertHeaderBytes = append([]byte(cfg.InsertHeaderRow), '\n')
	}
	return s, nil
}

// SetFilter installs an optional read-time byte filter.
func (s *Scanner) SetFilter(f FilterFunc) { s.filter = f }

// Abort requests cooperative cancellation; checked after every cell/row
// emission and at every chunk refill.
func (s *Scanner) Abort() { s.abortFlag = true }

// HadBOM reports whether a UTF-8 BOM was stripped from the start of input.
func (s *Scanner) HadBOM() bool { return s.hadBOM }

// DataRowCount returns the number of rows the scanner has ended so far,
// counted before the header policies run (rows they discard are included).
func (s *Scanner) DataRowCount() int64 { return s.dataRowCount }

// ByteOffset returns the cumulative stream offset of the scan cursor,
// counting a stripped BOM as 3 bytes.
func (s *Scanner) ByteOffset() int64 {
	off := s.cumScannedLength + int64(s.filled)
	if s.hadBOM {
		off += 3
	}
	return off
}

// ParseMore refills the buffer and drives one chunk through the active
// scanner. Call it in a loop until it returns StatusNoMoreInput, then call
// Finish to flush any trailing partial row.
func (s *Scanner) ParseMore() (zsverr.Status, error) {
	if s.abortFlag {
		return zsverr.StatusCancelled, nil
	}
	s.started = true

	prevFilled := s.filled
	prevPartial := s.partialRowLength
	scanFrom, newN, status, err := s.refill()
	if err != nil {
		return status, err
	}
	if newN == 0 {
		// Nothing new to scan this round: either already finished, or
		// this call just discovered EOF with no trailing bytes. Either
		// way the buffer holds no fresh structural bytes to dispatch;
		// any trailing partial row is Finish's job.
		if status == zsverr.StatusNoMoreInput || s.finished {
			return zsverr.StatusNoMoreInput, nil
		}
		return zsverr.StatusOK, nil
	}
	s.cumScannedLength += int64(prevFilled - prevPartial)

	switch s.mode {
	case ModeFixed:
		s.scanFixed(scanFrom)
	default:
		s.scanDelimited(scanFrom)
	}

	if s.filled > 0 {
		// Saved for the next call's priorByte(0): when the next refill
		// carries nothing forward (clean row boundary), this is the only
		// remaining record of the byte a split CRLF pair would pair with.
		s.last = s.buf[s.filled-1]
	}

	s.reportProgress()

	if s.abortFlag {
		if s.hitMaxRows {
			return zsverr.StatusMaxRowsRead, nil
		}
		return zsverr.StatusCancelled, nil
	}
	if s.finished && s.partialRowLength == 0 {
		return zsverr.StatusNoMoreInput, nil
	}
	return zsverr.StatusOK, nil
}

// Finish flushes any trailing unterminated row and returns the terminal
// status. It must be called exactly once, after ParseMore has returned
// StatusNoMoreInput.
func (s *Scanner) Finish() (zsverr.Status, error) {
	if s.discardRow {
		// Stream ended inside a truncated row's overflowed suffix: there is
		// no well-formed row left to flush, so it is dropped rather than
		// emitted as a fragment.
		s.discardRow = false
		s.bufferExceeded = false
		s.partialRowLength = 0
		return zsverr.StatusNoMoreInput, nil
	}
	if s.partialRowLength == 0 {
		return zsverr.StatusNoMoreInput, nil
	}
	switch s.mode {
	case ModeFixed:
		line := s.buf[s.rowStart:s.filled]
		if len(line) > 0 && line[len(line)-1] == '\r' {
			line = line[:len(line)-1]
		}
		s.emitFixedLine(line)
	default:
		s.emitCell(s.filled)
		if s.overflowThisRow > 0 {
			s.sink.Overflow(s.overflowThisRow)
		}
		s.dataRowCount++
		if s.sink.Row() {
			s.abortFlag = true
		}
		s.cellsThisRow = 0
		s.overflowThisRow = 0
	}
	s.partialRowLength = 0
	if s.abortFlag {
		return zsverr.StatusCancelled, nil
	}
	return zsverr.StatusNoMoreInput, nil
}

func (s *Scanner) reportProgress() {
	if s.cfg.ProgressFunc == nil {
		return
	}
	rowTrigger := s.cfg.ProgressEveryRows > 0 && s.dataRowCount-s.lastProgressRows >= s.cfg.ProgressEveryRows
	now := time.Now()
	timeTrigger := s.cfg.ProgressEvery > 0 && !s.lastProgressTime.IsZero() && now.Sub(s.lastProgressTime) >= s.cfg.ProgressEvery
	if !rowTrigger && !timeTrigger {
		if s.lastProgressTime.IsZero() {
			s.lastProgressTime = now
		}
		return
	}
	s.lastProgressRows = s.dataRowCount
	s.lastProgressTime = now
	s.cfg.ProgressFunc(Progress{
		DataRowCount: s.dataRowCount,
		ByteOffset:   s.ByteOffset(),
	})
}
