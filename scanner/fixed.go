package scanner

import (
	"bytes"

	"github.com/go-zsv/zsvcore/internal/zsverr"
)

// SetFixedOffsets switches the scanner into fixed-width mode, configured
// by an ascending array of cell-end byte offsets. It is a typestate
// operation: it must be called before the first ParseMore, matching the
// invariant that scan mode cannot change once parsing has begun.
func (s *Scanner) SetFixedOffsets(offsets []int) error {
	if s.started {
		return zsverr.New(zsverr.StatusInvalidOption, zsverr.ErrModeChangeAfterStart)
	}
	prev := 0
	for _, off := range offsets {
		if off <= prev {
			return zsverr.New(zsverr.StatusInvalidOption, zsverr.ErrInvalidFixedOffsets)
		}
		prev = off
	}
	if len(offsets) > 0 && offsets[len(offsets)-1] > len(s.buf) {
		return zsverr.New(zsverr.StatusInvalidOption, zsverr.ErrOffsetsExceedBuffer)
	}
	s.fixedOffsets = append([]int(nil), offsets...)
	s.mode = ModeFixed
	return nil
}

// scanFixed splits each complete line in buf[from:s.filled] on the
// configured offsets. Quoting is never interpreted in this mode.
func (s *Scanner) scanFixed(from int) {
	data := s.buf[from:s.filled]
	pos := 0
	for {
		idx := bytes.IndexByte(data[pos:], '\n')
		if idx < 0 {
			break
		}
		lineEnd := pos + idx
		line := s.buf[s.rowStart : from+lineEnd]
		if len(line) > 0 && line[len(line)-1] == '\r' {
			line = line[:len(line)-1]
		}
		if s.discardRow {
			// Tail of a line that overflowed the buffer: dropped.
			s.discardRow = false
			s.bufferExceeded = false
		} else {
			s.emitFixedLine(line)
			if s.abortFlag {
				return
			}
		}
		abs := from + lineEnd + 1
		s.rowStart = abs
		s.cellStart = abs
		pos = lineEnd + 1
	}
	s.partialRowLength = s.filled - s.rowStart
}

func (s *Scanner) emitFixedLine(line []byte) {
	prevOff := 0
	for _, off := range s.fixedOffsets {
		end := off
		if end > len(line) {
			end = len(line)
		}
		start := prevOff
		if start > len(line) {
			start = len(line)
		}
		s.cellsThisRow++
		if s.cellsThisRow > s.cfg.MaxColumns {
			s.overflowThisRow++
		} else {
			s.sink.Cell(line[start:end], 0)
		}
		prevOff = off
	}

	if s.overflowThisRow > 0 {
		s.sink.Overflow(s.overflowThisRow)
	}
	s.dataRowCount++
	if s.sink.Row() {
		s.abortFlag = true
	}
	s.cellsThisRow = 0
	s.overflowThisRow = 0
	if s.cfg.MaxRows > 0 && s.dataRowCount >= s.cfg.MaxRows {
		s.abortFlag = true
		s.hitMaxRows = true
	}
}
