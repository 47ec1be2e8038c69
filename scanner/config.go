package scanner

import (
	"time"

	"github.com/go-zsv/zsvcore/internal/zsverr"
)

// Mode selects which scanning discipline a Scanner runs. A Scanner is a
// typestate: Mode may only be set before the first ParseMore call (see
// Scanner.SetFixedOffsets).
type Mode int

const (
	// ModeDelim is the push-driven delimited (CSV/TSV-style) scanner.
	ModeDelim Mode = iota
	// ModeDelimPull is ModeDelim re-exposed through the pull adaptor (Pull).
	ModeDelimPull
	// ModeFixed splits each line on a fixed array of byte offsets.
	ModeFixed
)

// UTF8Policy names a treatment for malformed UTF-8 byte sequences. The
// scanner does not apply any of them: see Config.MalformedUTF8.
type UTF8Policy int

const (
	// UTF8Keep passes malformed bytes through unchanged.
	UTF8Keep UTF8Policy = iota
	// UTF8Replace substitutes each malformed byte with ReplacementByte.
	UTF8Replace
	// UTF8Strip drops malformed bytes entirely.
	UTF8Strip
)

const (
	minBufSize        = 4096
	defaultMaxColumns = 1024
)

// Progress is reported to Config.ProgressFunc after every ProgressEveryRows
// rows and/or every ProgressEvery elapsed, whichever condition the caller
// configured.
type Progress struct {
	DataRowCount int64
	ByteOffset   int64
	Elapsed      time.Duration
}

// Config holds every recognized scanner option. The zero value is not a
// valid Config; start from DefaultConfig.
type Config struct {
	// Delimiter separates columns. Must not be '\n', '\r', or '"'.
	Delimiter byte
	// NoQuotes disables quote interpretation; '"' becomes a literal byte.
	NoQuotes bool
	// MaxColumns bounds a row's cell capacity; overflow cells are counted
	// and dropped, with a single warning per row.
	MaxColumns int
	// MaxRowSize is the minimum guaranteed row capacity; the buffer is
	// sized to at least 2x this.
	MaxRowSize int
	// BufSize sets the buffer size. A value below 4096, or below
	// 2x MaxRowSize, is raised to the larger of the two.
	BufSize int
	// RowsToIgnore skips this many raw rows before header policies run.
	RowsToIgnore int
	// HeaderSpan collates this many consecutive rows into one header row.
	HeaderSpan int
	// KeepEmptyHeaderRows disables auto-skip of leading all-blank rows.
	KeepEmptyHeaderRows bool
	// InsertHeaderRow is a CSV fragment parsed and emitted as synthetic
	// row 0, ahead of anything read from the input stream.
	InsertHeaderRow string
	// MalformedUTF8 names an invalid-UTF-8 policy. The scanner does not
	// read it: input bytes reach cells unchanged whatever its value.
	MalformedUTF8 UTF8Policy
	// ReplacementByte is the substitute byte UTF8Replace names. Like
	// MalformedUTF8, it is not read by the scanner.
	ReplacementByte byte
	// OnlyCRLFRowEnd, when set, accepts only CRLF as a row terminator; a
	// bare CR or LF is treated as cell content.
	OnlyCRLFRowEnd bool
	// MaxRows hard-caps the total rows emitted, including header rows.
	MaxRows int64
	// ProgressEveryRows and ProgressEvery gate how often ProgressFunc is
	// invoked; a zero value disables that trigger.
	ProgressEveryRows int64
	ProgressEvery     time.Duration
	ProgressFunc      func(Progress)
}

// DefaultConfig returns a Config with the documented defaults: comma
// delimiter, 1024 max columns, and a 64KiB buffer floor.
func DefaultConfig() Config {
	return Config{
		Delimiter:  ',',
		MaxColumns: defaultMaxColumns,
		MaxRowSize: 32 * 1024,
		BufSize:    64 * 1024,
	}
}

// Validate rejects option combinations that fall into the Option
// (fatal-at-configure-time) error category.
func (c Config) Validate() error {
	if c.Delimiter == '\n' || c.Delimiter == '\r' || c.Delimiter == '"' {
		return zsverr.New(zsverr.StatusInvalidOption, zsverr.ErrInvalidDelimiter)
	}
	if c.MaxColumns <= 0 {
		return zsverr.New(zsverr.StatusInvalidOption, zsverr.ErrInvalidMaxColumns)
	}
	size := c.bufferSize()
	if size < minBufSize {
		return zsverr.New(zsverr.StatusInvalidOption, zsverr.ErrBufferTooSmall)
	}
	return nil
}

func (c Config) bufferSize() int {
	size := c.BufSize
	if size < minBufSize {
		size = minBufSize
	}
	if need := 2 * c.MaxRowSize; need > size {
		size = need
	}
	return size
}
