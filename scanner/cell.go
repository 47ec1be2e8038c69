// Package scanner implements the streaming, vector-assisted CSV/TSV and
// fixed-width scanner: bytes in, logical rows of zero-copy cell views out.
package scanner

import "unsafe"

// CellFlags records the quoting state observed for an emitted cell. The
// low three bits are part of the public contract; the remaining bits are
// internal bookkeeping and are never set on a Cell handed to a Sink.
type CellFlags uint8

const (
	// QuoteClosed is set when the cell was surrounded by a matched pair of
	// double quotes.
	QuoteClosed CellFlags = 1 << iota
	// QuoteNeeded is set when the cell's content requires quoting to
	// round-trip: it contains the delimiter, a newline, or a quote.
	QuoteNeeded
	// QuoteEmbedded is set when the cell contained a literal double quote
	// that was encoded in the input as a doubled `""`.
	QuoteEmbedded

	// quoteUnclosed and quotePending are internal parser state and are
	// masked off before a cell is handed to a Sink.
	quoteUnclosed
	quotePending
	quotePendingLF
)

const publicFlagsMask = QuoteClosed | QuoteNeeded | QuoteEmbedded

// Cell is a zero-copy view into the scanner's current buffer. Str aliases
// scanner-owned memory and is only valid until the next ParseMore or Next
// call; copy it with strings.Clone if it must outlive that call.
type Cell struct {
	Str   string
	Flags CellFlags
}

// Bytes reinterprets Str as a byte slice without copying. The result must
// not be mutated, and is subject to the same lifetime as Str.
func (c Cell) Bytes() []byte {
	if len(c.Str) == 0 {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(c.Str), len(c.Str))
}

func cellFromBuffer(buf []byte, flags CellFlags) Cell {
	flags &= publicFlagsMask
	if len(buf) == 0 {
		return Cell{Flags: flags}
	}
	return Cell{Str: unsafe.String(unsafe.SliceData(buf), len(buf)), Flags: flags}
}
