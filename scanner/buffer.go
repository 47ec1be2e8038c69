package scanner

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/go-zsv/zsvcore/internal/zsverr"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// refill implements the chunk/boundary sliding protocol (carry the partial
// row forward, read more bytes, strip a leading BOM, run the filter
// callback) ahead of dispatching to the active scanner. scanFrom is the
// offset newly-read bytes start at; newN is how many of them there are —
// zero once the stream is exhausted, at which point the caller must stop
// scanning and let Finish flush any trailing partial row.
func (s *Scanner) refill() (scanFrom, newN int, status zsverr.Status, err error) {
	if s.finished {
		return 0, 0, zsverr.StatusNoMoreInput, nil
	}

	carry := s.partialRowLength
	if s.rowStart > 0 {
		copy(s.buf[0:carry], s.buf[s.rowStart:s.rowStart+carry])
		s.cellStart -= s.rowStart
		s.rowStart = 0
	}

	capacity := len(s.buf) - carry
	if capacity <= 0 {
		// The current row doesn't fit in the buffer even after carrying its
		// partial prefix forward. Install a one-shot discard: drop
		// everything already buffered for this row and ignore the rest of
		// it (delimiters and quote opens included) until its terminator is
		// found; normal scanning resumes on the row after. If a row is so
		// oversized this triggers on consecutive refills, only warn once.
		if !s.discardRow {
			s.bufferExceeded = true
			s.discardRow = true
			s.sink.Error(zsverr.StatusOK, fmt.Errorf("row exceeds buffsize %d, truncating", len(s.buf)), 0, s.cumScannedLength)
		}
		carry = 0
		s.rowStart = 0
		s.cellStart = 0
		s.quoted = 0
		s.quoteClosePos = -1
		s.cellsThisRow = 0
		s.overflowThisRow = 0
		capacity = len(s.buf)
	}

	if s.insertHeaderPending {
		s.insertHeaderPending = false
		n := copy(s.buf[carry:], s.insertHeaderBytes)
		s.filled = carry + n
		return carry, n, zsverr.StatusOK, nil
	}

	n, readErr := s.input.Read(s.buf[carry:carry+capacity])
	if n > 0 && s.filter != nil {
		n = s.filter(s.buf[carry:carry+n], n)
	}

	if !s.checkedBOM {
		s.checkedBOM = true
		if carry == 0 && n >= len(utf8BOM) && bytes.Equal(s.buf[0:len(utf8BOM)], utf8BOM) {
			copy(s.buf[0:], s.buf[len(utf8BOM):n])
			n -= len(utf8BOM)
			s.hadBOM = true
		}
	}

	s.filled = carry + n

	if readErr != nil {
		if errors.Is(readErr, io.EOF) {
			s.finished = true
		} else {
			return carry, n, zsverr.StatusMemory, readErr
		}
	}
	if n == 0 {
		s.finished = true
	}

	return carry, n, zsverr.StatusOK, nil
}

// priorByte returns the byte immediately preceding absolute buffer offset
// i, consulting the carried-over last byte at the very start of the buffer.
func (s *Scanner) priorByte(i int) byte {
	if i <= 0 {
		return s.last
	}
	return s.buf[i-1]
}
