package rowindex

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func buildIndex(t *testing.T, stride int, rows int) (*Index, []int64) {
	t.Helper()
	ix := New(stride)
	ix.SetHeaderEnd(0)
	var offsets []int64
	var cum int64
	for i := 0; i < rows; i++ {
		cum += 10 // pretend every row is exactly 10 bytes including terminator
		offsets = append(offsets, cum)
		ix.Observe(cum)
	}
	return ix, offsets
}

func TestNearestFindsLargestAtOrBefore(t *testing.T) {
	ix, offsets := buildIndex(t, 4, 20)
	for k := int64(0); k < 20; k++ {
		offset, atRow, ok := ix.Nearest(k)
		wantRow := (k / 4) * 4
		if wantRow == 0 {
			if ok {
				t.Errorf("row %d: Nearest ok, want false (row 0 falls back to the header offset)", k)
			}
			continue
		}
		if !ok {
			t.Fatalf("row %d: Nearest not ok", k)
		}
		if atRow != wantRow {
			t.Errorf("row %d: atRow = %d, want %d", k, atRow, wantRow)
		}
		if offset != offsets[wantRow-1] {
			t.Errorf("row %d: offset = %d, want %d", k, offset, offsets[wantRow-1])
		}
	}
}

func TestStrideRoundsDownToPowerOfTwo(t *testing.T) {
	ix := New(100)
	if ix.stride != 64 {
		t.Errorf("stride = %d, want 64", ix.stride)
	}
}

func TestSeekRowVerifiesBoundary(t *testing.T) {
	data := "h1,h2\n" + strings.Repeat("a,b\n", 8)
	ix := New(4)
	headerEnd := int64(len("h1,h2\n"))
	ix.SetHeaderEnd(headerEnd)
	// Each "a,b\n" row is 4 bytes; its terminator sits at the 4th byte of
	// that row, i.e. 3 bytes past the row's start offset.
	rowStart := headerEnd
	for i := 0; i < 8; i++ {
		terminator := rowStart + 3
		ix.Observe(terminator)
		rowStart += 4
	}
	r := bytes.NewReader([]byte(data))
	steps, err := ix.SeekRow(r, 6)
	if err != nil {
		t.Fatalf("SeekRow: %v", err)
	}
	if steps != 2 {
		t.Errorf("steps = %d, want 2", steps)
	}
	got, _ := io.ReadAll(r)
	if string(got) != strings.Repeat("a,b\n", 4) {
		t.Errorf("after seek, remaining = %q", got)
	}
}

func TestCompressBlocksRoundTripsLength(t *testing.T) {
	ix, _ := buildIndex(t, 1, 50)
	blocks, err := ix.CompressBlocks()
	if err != nil {
		t.Fatalf("CompressBlocks: %v", err)
	}
	if len(blocks) != len(ix.blocks) {
		t.Fatalf("got %d compressed blocks, want %d", len(blocks), len(ix.blocks))
	}
}
