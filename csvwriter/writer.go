// Package csvwriter emits RFC-4180-style CSV that round-trips through the
// scanner package: any cell requiring quoting (because it contains the
// delimiter, a quote, or a row terminator) is quoted, and embedded quotes
// are doubled. It is the writer half of the "CSV on the wire" contract in
// the scanner's External Interfaces.
package csvwriter

import (
	"bufio"
	"fmt"
	"io"
)

// Config controls wire formatting. The zero value is comma-delimited,
// LF-terminated, no BOM.
type Config struct {
	Delimiter byte
	CRLF      bool // emit "\r\n" row terminators instead of "\n"
	EmitBOM   bool
}

func (c Config) delimiter() byte {
	if c.Delimiter == 0 {
		return ','
	}
	return c.Delimiter
}

func (c Config) rowTerm() string {
	if c.CRLF {
		return "\r\n"
	}
	return "\n"
}

// Writer serializes rows of cells to an underlying io.Writer, buffered for
// throughput on large outputs.
type Writer struct {
	w        *bufio.Writer
	cfg      Config
	col      int
	wroteBOM bool
}

// New returns a Writer over w.
func New(w io.Writer, cfg Config) *Writer {
	return &Writer{w: bufio.NewWriter(w), cfg: cfg}
}

// WriteCell writes one cell, preceding it with the delimiter if it is not
// the first cell of the row, quoting it if its content requires it.
func (w *Writer) WriteCell(s string) error {
	if err := w.maybeWriteBOM(); err != nil {
		return err
	}
	if w.col > 0 {
		if err := w.w.WriteByte(w.cfg.delimiter()); err != nil {
			return err
		}
	}
	w.col++
	if !needsQuoting(s, w.cfg.delimiter()) {
		_, err := w.w.WriteString(s)
		return err
	}
	return w.writeQuoted(s)
}

func (w *Writer) writeQuoted(s string) error {
	if err := w.w.WriteByte('"'); err != nil {
		return err
	}
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '"' {
			if _, err := w.w.WriteString(s[start : i+1]); err != nil {
				return err
			}
			if err := w.w.WriteByte('"'); err != nil {
				return err
			}
			start = i + 1
		}
	}
	if _, err := w.w.WriteString(s[start:]); err != nil {
		return err
	}
	return w.w.WriteByte('"')
}

// EndRow terminates the current row and resets the column counter.
func (w *Writer) EndRow() error {
	if err := w.maybeWriteBOM(); err != nil {
		return err
	}
	if _, err := w.w.WriteString(w.cfg.rowTerm()); err != nil {
		return err
	}
	w.col = 0
	return nil
}

// WriteRow writes an entire row of cells followed by EndRow.
func (w *Writer) WriteRow(cells []string) error {
	for _, c := range cells {
		if err := w.WriteCell(c); err != nil {
			return fmt.Errorf("csvwriter: %w", err)
		}
	}
	return w.EndRow()
}

func (w *Writer) maybeWriteBOM() error {
	if !w.cfg.EmitBOM || w.wroteBOM {
		return nil
	}
	w.wroteBOM = true
	_, err := w.w.Write([]byte{0xEF, 0xBB, 0xBF})
	return err
}

// Flush flushes the underlying buffered writer.
func (w *Writer) Flush() error { return w.w.Flush() }

func needsQuoting(s string, delimiter byte) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case delimiter, '"', '\n', '\r':
			return true
		}
	}
	return false
}
