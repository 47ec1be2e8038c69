package overwrite

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-zsv/zsvcore/internal/zsverr"
	"github.com/go-zsv/zsvcore/scanner"
)

// csvColumns names the columns a CSV overwrite source recognizes, matched
// case-insensitively against the header row. row, column and value are
// mandatory; the rest are optional provenance fields.
type csvColumns struct {
	row, column, value   int
	timestamp, author, old int // -1 when absent
}

// CSVSource reads a fully-materialized CSV overwrite file: a header row
// naming row,column,value and optionally timestamp,author,"old value",
// followed by entries in sorted (row,col) order. The whole file is parsed
// up front — overwrite files are a side-channel, not the primary data
// stream, so eager loading keeps Next() allocation-free.
type CSVSource struct {
	entries []Entry
	pos     int
	f       *os.File
}

// NewCSVSource opens and fully parses path as a CSV overwrite source.
func NewCSVSource(path string) (*CSVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("overwrite: opening %s: %w", path, err)
	}
	src, err := newCSVSourceFromReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	src.f = f
	return src, nil
}

func newCSVSourceFromReader(r io.Reader) (*CSVSource, error) {
	var rows [][]string
	var cur []string
	sink := scanner.SinkFuncs{
		CellFunc: func(b []byte, _ scanner.CellFlags) { cur = append(cur, string(b)) },
		RowFunc: func() bool {
			rows = append(rows, cur)
			cur = nil
			return false
		},
	}
	cfg := scanner.DefaultConfig()
	cfg.KeepEmptyHeaderRows = true
	sc, err := scanner.New(cfg, scanner.ModeDelim, r, sink)
	if err != nil {
		return nil, err
	}
	for {
		status, err := sc.ParseMore()
		if err != nil {
			return nil, fmt.Errorf("overwrite: reading CSV source: %w", err)
		}
		if status == zsverr.StatusNoMoreInput {
			break
		}
	}
	if _, err := sc.Finish(); err != nil {
		return nil, fmt.Errorf("overwrite: reading CSV source: %w", err)
	}
	if len(rows) == 0 {
		return &CSVSource{}, nil
	}

	cols, err := resolveColumns(rows[0])
	if err != nil {
		return nil, err
	}

	chk := sortChecker{}
	entries := make([]Entry, 0, len(rows)-1)
	for i, row := range rows[1:] {
		e, err := parseEntry(row, cols)
		if err != nil {
			return nil, fmt.Errorf("overwrite: row %d: %w", i+1, err)
		}
		if err := chk.check(e); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return &CSVSource{entries: entries}, nil
}

func resolveColumns(header []string) (csvColumns, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	cols := csvColumns{timestamp: -1, author: -1, old: -1}
	var ok bool
	if cols.row, ok = idx["row"]; !ok {
		return cols, zsverr.New(zsverr.StatusInvalidOption, fmt.Errorf("%w: %q", zsverr.ErrOverwriteMissingColumn, "row"))
	}
	if cols.column, ok = idx["column"]; !ok {
		return cols, zsverr.New(zsverr.StatusInvalidOption, fmt.Errorf("%w: %q", zsverr.ErrOverwriteMissingColumn, "column"))
	}
	if cols.value, ok = idx["value"]; !ok {
		return cols, zsverr.New(zsverr.StatusInvalidOption, fmt.Errorf("%w: %q", zsverr.ErrOverwriteMissingColumn, "value"))
	}
	if i, ok := idx["timestamp"]; ok {
		cols.timestamp = i
	}
	if i, ok := idx["author"]; ok {
		cols.author = i
	}
	if i, ok := idx["old value"]; ok {
		cols.old = i
	}
	return cols, nil
}

func parseEntry(row []string, cols csvColumns) (Entry, error) {
	var e Entry
	get := func(i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return row[i]
	}
	r, err := strconv.ParseInt(strings.TrimSpace(get(cols.row)), 10, 64)
	if err != nil {
		return e, fmt.Errorf("invalid row number %q: %w", get(cols.row), err)
	}
	c, err := strconv.ParseInt(strings.TrimSpace(get(cols.column)), 10, 64)
	if err != nil {
		return e, fmt.Errorf("invalid column number %q: %w", get(cols.column), err)
	}
	e.Row = r
	e.Col = c
	e.Value = get(cols.value)
	e.Timestamp = get(cols.timestamp)
	e.Author = get(cols.author)
	e.OldValue = get(cols.old)
	return e, nil
}

func (s *CSVSource) Next() (Entry, bool, error) {
	if s.pos >= len(s.entries) {
		return Entry{}, false, nil
	}
	e := s.entries[s.pos]
	s.pos++
	return e, true, nil
}

func (s *CSVSource) Close() error {
	if s.f != nil {
		return s.f.Close()
	}
	return nil
}
