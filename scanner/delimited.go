package scanner

import (
	"bytes"
	"math/bits"

	"github.com/go-zsv/zsvcore/internal/simd"
)

// scanDelimited drains buf[from:s.filled] through the vectorized structural
// scan and the scalar quote/delimiter state machine, dispatching complete
// rows to s.sink. It leaves any trailing partial row in place for the next
// refill to carry forward.
func (s *Scanner) scanDelimited(from int) {
	data := s.buf[from:s.filled]
	if len(data) == 0 {
		return
	}

	if s.quoted&quotePending != 0 {
		s.resolvePendingQuote(from)
		if s.abortFlag {
			return
		}
	}

	s.masks.Reset(len(data))
	simd.Scan(data, s.cfg.Delimiter, s.masks)

	words := len(s.masks.Delims)
	for w := 0; w < words; w++ {
		combined := s.masks.Delims[w] | s.masks.CRs[w] | s.masks.LFs[w]
		if !s.cfg.NoQuotes {
			combined |= s.masks.Quotes[w]
		}
		if combined == 0 {
			continue
		}
		base := w * 64
		for combined != 0 {
			bit := bits.TrailingZeros64(combined)
			combined &^= uint64(1) << uint(bit)
			pos := base + bit
			if pos >= len(data) {
				break
			}
			abs := from + pos
			if abs == s.skipPos {
				s.skipPos = -1
				continue
			}
			if s.discardRow {
				s.handleDiscardByte(abs, data[pos])
				continue
			}
			s.handleByte(abs, data[pos])
			if s.abortFlag {
				return
			}
		}
	}

	s.partialRowLength = s.filled - s.rowStart
}

// resolvePendingQuote decides, using the first byte of the freshly-read
// chunk, whether a quote left QUOTE_PENDING at the end of the previous
// chunk closes the cell or escapes a literal quote.
func (s *Scanner) resolvePendingQuote(from int) {
	s.quoted &^= quotePending
	if from >= s.filled {
		// still no lookahead byte available; stay pending.
		s.quoted |= quotePending
		return
	}
	next := s.buf[from]
	if next == '"' {
		s.quoted |= QuoteNeeded | QuoteEmbedded
		s.skipPos = from
	} else {
		s.quoted |= QuoteClosed
		s.quoted &^= quoteUnclosed
		if s.quoteClosePos < 0 {
			s.quoteClosePos = from - 1 - s.cellStart
		}
	}
}

// handleByte is the scalar state handler for one structural byte at
// absolute buffer offset i.
func (s *Scanner) handleByte(i int, c byte) {
	if s.quoted&quotePendingLF != 0 && c != '\n' {
		s.quoted |= QuoteNeeded
		s.quoted &^= quotePendingLF
	}

	switch {
	case c == s.cfg.Delimiter:
		if s.quoted&quoteUnclosed == 0 {
			s.emitCell(i)
			s.cellStart = i + 1
		} else {
			s.quoted |= QuoteNeeded
		}

	case c == '\r':
		if s.cfg.OnlyCRLFRowEnd {
			if s.quoted&quoteUnclosed == 0 {
				s.quoted |= quotePendingLF
			} else {
				s.quoted |= QuoteNeeded
			}
			return
		}
		if s.quoted&quoteUnclosed == 0 {
			s.emitCell(i)
			s.endRow(i + 1)
		}

	case c == '\n':
		if s.quoted&quoteUnclosed != 0 {
			s.quoted |= QuoteNeeded
			return
		}
		if s.cfg.OnlyCRLFRowEnd {
			if s.priorByte(i) == '\r' {
				s.quoted &^= quotePendingLF
				s.emitCell(i - 1)
				s.endRow(i + 1)
			} else {
				s.quoted |= QuoteNeeded
			}
			return
		}
		if s.priorByte(i) == '\r' {
			// The LF half of a CRLF pair already terminated by '\r': no
			// second row end, but the pair must still not leak into the
			// next cell's content.
			s.rowStart = i + 1
			s.cellStart = i + 1
			return
		}
		s.emitCell(i)
		s.endRow(i + 1)

	case c == '"' && !s.cfg.NoQuotes:
		s.handleQuote(i)
	}
}

// handleDiscardByte consumes one structural byte while a one-shot discard
// is active (installed by refill when a row overflowed the buffer).
// Delimiters and quotes in the overflowed suffix are ignored entirely; only
// a row terminator ends the discard, with no cell or row delivered to the
// sink for the truncated row.
func (s *Scanner) handleDiscardByte(i int, c byte) {
	switch c {
	case '\r':
		if !s.cfg.OnlyCRLFRowEnd {
			s.endDiscard(i + 1)
		}
	case '\n':
		if s.cfg.OnlyCRLFRowEnd {
			if s.priorByte(i) == '\r' {
				s.endDiscard(i + 1)
			}
		} else if s.priorByte(i) != '\r' {
			s.endDiscard(i + 1)
		}
	}
}

func (s *Scanner) endDiscard(nextRowStart int) {
	s.discardRow = false
	s.bufferExceeded = false
	s.rowStart = nextRowStart
	s.cellStart = nextRowStart
}

func (s *Scanner) handleQuote(i int) {
	switch {
	case i == s.cellStart && !s.bufferExceeded:
		s.quoted |= quoteUnclosed
		s.quoteClosePos = -1

	case s.quoted&quoteUnclosed != 0:
		if i+1 >= s.filled {
			s.quoted |= quotePending
			return
		}
		next := s.buf[i+1]
		if next != '"' {
			s.quoted |= QuoteClosed
			s.quoted &^= quoteUnclosed
			if s.quoteClosePos < 0 {
				s.quoteClosePos = i - s.cellStart
			}
		} else {
			s.quoted |= QuoteNeeded | QuoteEmbedded
			s.skipPos = i + 1
		}

	default:
		s.quoted |= QuoteEmbedded
		if s.quoted&QuoteClosed == 0 {
			s.quoteClosePos = -1
		}
	}
}

// emitCell finalizes the cell [cellStart, end) and hands it to the sink,
// tracking MaxColumns overflow.
func (s *Scanner) emitCell(end int) {
	start := s.cellStart
	flags := s.quoted
	closePos := s.quoteClosePos

	s.cellsThisRow++
	if s.cellsThisRow > s.cfg.MaxColumns {
		s.overflowThisRow++
	} else {
		b, f := s.finalizeCell(start, end, flags, closePos)
		if s.cfg.NoQuotes && s.cfg.Delimiter != ',' && bytes.IndexByte(b, ',') >= 0 {
			f |= QuoteNeeded
		}
		s.sink.Cell(b, f)
	}

	s.quoted = 0
	s.quoteClosePos = -1
}

func (s *Scanner) finalizeCell(start, end int, flags CellFlags, closePos int) ([]byte, CellFlags) {
	if flags&QuoteClosed == 0 {
		return s.buf[start:end], flags & publicFlagsMask
	}
	var inner []byte
	cellLen := end - start
	if closePos >= 0 && closePos+1 == cellLen {
		inner = s.buf[start+1 : end-1]
	} else if closePos >= 0 {
		inner = s.buf[start+1 : start+closePos]
	} else {
		inner = s.buf[start:end]
	}
	if flags&QuoteEmbedded != 0 {
		inner = collapseDoubledQuotes(inner)
	}
	return inner, flags & publicFlagsMask
}

// collapseDoubledQuotes shrinks b in place, replacing every "" pair with a
// single ", and returns the shortened slice.
func collapseDoubledQuotes(b []byte) []byte {
	w := 0
	for r := 0; r < len(b); r++ {
		b[w] = b[r]
		w++
		if b[r] == '"' && r+1 < len(b) && b[r+1] == '"' {
			r++
		}
	}
	return b[:w]
}

// endRow finalizes the current row: reports overflow if any, delivers the
// row to the sink, resets per-row state, and honors cancellation/max_rows.
func (s *Scanner) endRow(nextRowStart int) {
	s.bufferExceeded = false
	if s.overflowThisRow > 0 {
		s.sink.Overflow(s.overflowThisRow)
	}
	s.dataRowCount++
	if s.sink.Row() {
		s.abortFlag = true
	}
	s.cellsThisRow = 0
	s.overflowThisRow = 0
	s.rowStart = nextRowStart
	s.cellStart = nextRowStart
	if s.cfg.MaxRows > 0 && s.dataRowCount >= s.cfg.MaxRows {
		s.abortFlag = true
		s.hitMaxRows = true
	}
}
