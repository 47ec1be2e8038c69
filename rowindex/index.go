// Package rowindex builds a sparse, append-only mapping from row number to
// byte offset, enabling seek-to-row without a full re-scan from the start
// of a CSV stream.
package rowindex

import (
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

// defaultStride is the number of rows between indexed entries; it must be
// a power of two so row-number-to-chain-position arithmetic reduces to a
// mask instead of a division.
const defaultStride = 1024

// block is one growable array in the chain. Index holds append-only
// blocks so earlier offsets never move when the chain grows.
type block struct {
	offsets []int64
}

const blockCapacity = 4096

// Index is a sparse byte-offset row index: every stride-th data row's end
// offset is recorded, plus the header line's end offset, in a list of
// fixed-capacity blocks.
type Index struct {
	stride     int
	mask       int64
	headerEnd  int64
	haveHeader bool
	blocks     []*block
	rowCount   int64
}

// New returns an empty Index with the given stride, rounded down to the
// nearest power of two; a stride <= 0 selects defaultStride.
func New(stride int) *Index {
	if stride <= 0 {
		stride = defaultStride
	}
	p := 1
	for p*2 <= stride {
		p *= 2
	}
	return &Index{stride: p, mask: int64(p - 1)}
}

// SetHeaderEnd records the byte offset immediately after the header line.
func (ix *Index) SetHeaderEnd(offset int64) {
	ix.headerEnd = offset
	ix.haveHeader = true
}

// Observe is called once per completed data row, in order, with the byte
// offset of that row's terminator (the '\n', or the '\r' of a '\r\n'
// pair) — not past it. It appends a new sparse entry whenever the row
// just completed is the last one before the next multiple-of-stride row
// (row 0 itself is never a separate entry; SeekRow falls back to the
// header offset for it).
func (ix *Index) Observe(terminatorOffset int64) {
	ix.rowCount++
	if ix.rowCount&ix.mask == 0 {
		ix.append(terminatorOffset)
	}
}

func (ix *Index) append(offset int64) {
	if len(ix.blocks) == 0 || len(ix.blocks[len(ix.blocks)-1].offsets) == blockCapacity {
		ix.blocks = append(ix.blocks, &block{offsets: make([]int64, 0, blockCapacity)})
	}
	last := ix.blocks[len(ix.blocks)-1]
	last.offsets = append(last.offsets, offset)
}

// RowCount returns the number of rows observed so far.
func (ix *Index) RowCount() int64 { return ix.rowCount }

// Nearest returns the byte offset of the largest indexed row at or before
// row K, and the row number that offset corresponds to. ok is false if K
// is before the first indexed entry (row 0, i.e. use the header offset).
func (ix *Index) Nearest(k int64) (offset int64, atRow int64, ok bool) {
	slot := k &^ ix.mask // row number of the entry at or before k
	if slot == 0 {
		return 0, 0, false // row 0's start is the header offset, not an entry
	}
	entryIdx := slot/int64(ix.stride) - 1
	blockIdx := entryIdx / blockCapacity
	within := entryIdx % blockCapacity
	if blockIdx < 0 || int(blockIdx) >= len(ix.blocks) {
		return 0, 0, false
	}
	b := ix.blocks[blockIdx]
	if int(within) >= len(b.offsets) {
		return 0, 0, false
	}
	return b.offsets[within], slot, true
}

// SeekRow positions r at the start of the nearest indexed row at or before
// k (atRow) and returns how many rows must still be driven forward through
// the scanner (k - atRow) before row k itself is reached. The caller is responsible for re-entering the
// scanner at the returned stream position and discarding that many rows.
func (ix *Index) SeekRow(r io.ReadSeeker, k int64) (stepsForward int64, err error) {
	offset, atRow, ok := ix.Nearest(k)
	if !ok {
		if !ix.haveHeader {
			return 0, fmt.Errorf("rowindex: no entries and no header recorded")
		}
		offset, atRow = ix.headerEnd, 0
	}
	if _, err := r.Seek(offset, io.SeekStart); err != nil {
		return 0, err
	}
	if ok {
		// Sparse entries point at a terminator; the header offset is
		// already past one.
		if err := verifyRowBoundary(r); err != nil {
			return 0, err
		}
	}
	return k - atRow, nil
}

// verifyRowBoundary confirms the byte at the current position is a row
// terminator (\n, \r, or \r\n) and advances the reader past it, per the
// seek-to-row contract: an indexed offset always points at a terminator,
// never into row content. It reads one byte at a time so it never pulls
// unread bytes past the boundary out of r.
func verifyRowBoundary(r io.ReadSeeker) error {
	var one [1]byte
	n, err := r.Read(one[:])
	if n == 0 {
		if err == io.EOF {
			return nil
		}
		return err
	}
	b := one[0]
	if b != '\n' && b != '\r' {
		return fmt.Errorf("rowindex: indexed offset does not land on a row terminator (saw %q)", b)
	}
	if b == '\r' {
		n2, err2 := r.Read(one[:])
		if n2 == 1 && one[0] != '\n' {
			_, _ = r.Seek(-1, io.SeekCurrent)
		}
		if n2 == 0 && err2 != nil && err2 != io.EOF {
			return err2
		}
	}
	return nil
}

// CompressBlocks returns the index's chain, lz4-compressed per block, for
// callers that want to spill a completed index to disk between runs. The
// core keeps the index in memory only (persistence is out of scope), but
// exposing this lets a caller build its own cache file without re-deriving
// the wire format.
func (ix *Index) CompressBlocks() ([][]byte, error) {
	out := make([][]byte, len(ix.blocks))
	for i, b := range ix.blocks {
		raw := int64SliceToBytes(b.offsets)
		compressed := make([]byte, lz4.CompressBlockBound(len(raw)))
		var c lz4.Compressor
		n, err := c.CompressBlock(raw, compressed)
		if err != nil {
			return nil, fmt.Errorf("rowindex: compressing block %d: %w", i, err)
		}
		if n == 0 {
			// Incompressible block: lz4 signals this by writing nothing.
			out[i] = append([]byte(nil), raw...)
			continue
		}
		out[i] = compressed[:n]
	}
	return out, nil
}

func int64SliceToBytes(s []int64) []byte {
	b := make([]byte, len(s)*8)
	for i, v := range s {
		u := uint64(v)
		for j := 0; j < 8; j++ {
			b[i*8+j] = byte(u >> (8 * j))
		}
	}
	return b
}
