package overwrite

import (
	"github.com/go-zsv/zsvcore/internal/zsverr"
	"github.com/go-zsv/zsvcore/scanner"
)

// MergeSink wraps a scanner.Sink, substituting cell content from src
// wherever the overwrite cursor lands on the cell currently being emitted.
// It is itself a scanner.Sink, so it composes with header policies and a
// scanner.Scanner exactly like any other sink — the caller builds it once
// and passes it to scanner.New in place of their own sink.
//
// The merge follows the cursor protocol: advance while
// (cursor.row, cursor.col) < (current_row, j), substitute on equality,
// otherwise pass the cell through untouched. The engine is
// single-producer/single-consumer and never seeks src backwards.
type MergeSink struct {
	next scanner.Sink
	src  Source

	row, col int64
	cur      Entry
	haveCur  bool
	err      error
}

// NewMergeSink returns a MergeSink delivering merged cells to next.
func NewMergeSink(next scanner.Sink, src Source) *MergeSink {
	return &MergeSink{next: next, src: src}
}

// Err returns the first error encountered reading src, if any. Check after
// the scanner reaches StatusNoMoreInput.
func (m *MergeSink) Err() error { return m.err }

func (m *MergeSink) advanceTo(row, col int64) {
	if m.err != nil {
		return
	}
	for {
		if !m.haveCur {
			e, ok, err := m.src.Next()
			if err != nil {
				m.err = err
				return
			}
			if !ok {
				return
			}
			m.cur = e
			m.haveCur = true
		}
		if m.cur.Less(row, col) {
			m.haveCur = false
			continue
		}
		return
	}
}

func (m *MergeSink) Cell(b []byte, flags scanner.CellFlags) {
	m.advanceTo(m.row, m.col)
	if m.haveCur && m.cur.Row == m.row && m.cur.Col == m.col {
		m.next.Cell([]byte(m.cur.Value), flags|scanner.QuoteClosed)
		m.haveCur = false
	} else {
		m.next.Cell(b, flags)
	}
	m.col++
}

// Row delivers pending overwrite entries for the current row whose columns
// directly follow the row's last physical cell (n, n+1, ...) as trailing
// synthetic cells (the overwrite source named a virtual column), then
// closes the row out. An entry for a column past a gap in that sequence is
// not delivered.
func (m *MergeSink) Row() bool {
	for {
		m.advanceTo(m.row, m.col)
		if !m.haveCur || m.cur.Row != m.row || m.cur.Col != m.col {
			break
		}
		m.next.Cell([]byte(m.cur.Value), scanner.QuoteClosed)
		m.haveCur = false
		m.col++
	}
	cancel := m.next.Row()
	m.row++
	m.col = 0
	return cancel
}

func (m *MergeSink) Overflow(n int) { m.next.Overflow(n) }

func (m *MergeSink) Error(status zsverr.Status, err error, offendingByte byte, cumOffset int64) {
	m.next.Error(status, err, offendingByte, cumOffset)
}
