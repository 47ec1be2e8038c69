package csvwriter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/go-zsv/zsvcore/scanner"
)

func TestWriteRowQuotesWhenNeeded(t *testing.T) {
	cases := []struct {
		cells []string
		want  string
	}{
		{[]string{"a", "b", "c"}, "a,b,c\n"},
		{[]string{"a", "b,c", "d"}, `a,"b,c",d` + "\n"},
		{[]string{"a", `he said "hi"`, "b"}, `a,"he said ""hi""",b` + "\n"},
		{[]string{"a", "line1\nline2", "b"}, "a,\"line1\nline2\",b\n"},
		{[]string{""}, "\n"},
	}
	for _, tc := range cases {
		var buf bytes.Buffer
		w := New(&buf, Config{})
		if err := w.WriteRow(tc.cells); err != nil {
			t.Fatalf("WriteRow(%v): %v", tc.cells, err)
		}
		if err := w.Flush(); err != nil {
			t.Fatalf("Flush: %v", err)
		}
		if buf.String() != tc.want {
			t.Errorf("WriteRow(%v) = %q, want %q", tc.cells, buf.String(), tc.want)
		}
	}
}

func TestEmitBOM(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf, Config{EmitBOM: true})
	if err := w.WriteRow([]string{"a", "b"}); err != nil {
		t.Fatalf("WriteRow: %v", err)
	}
	w.Flush()
	if !bytes.HasPrefix(buf.Bytes(), []byte{0xEF, 0xBB, 0xBF}) {
		t.Fatalf("output missing BOM: %q", buf.String())
	}
	if err := w.WriteRow([]string{"c"}); err != nil {
		t.Fatalf("WriteRow: %v", err)
	}
	w.Flush()
	if bytes.Count(buf.Bytes(), []byte{0xEF, 0xBB, 0xBF}) != 1 {
		t.Fatalf("BOM written more than once: %q", buf.String())
	}
}

// scanRows drives a scanner over s and returns the cell strings per row.
func scanRows(t *testing.T, s string) [][]string {
	t.Helper()
	var rec scanner.RowRecorder
	cfg := scanner.DefaultConfig()
	cfg.KeepEmptyHeaderRows = true
	sc, err := scanner.New(cfg, scanner.ModeDelim, strings.NewReader(s), &rec)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for {
		status, err := sc.ParseMore()
		if err != nil {
			t.Fatalf("ParseMore: %v", err)
		}
		if status.String() == "no_more_input" {
			break
		}
	}
	if _, err := sc.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	out := make([][]string, len(rec.Rows))
	for i, row := range rec.Rows {
		cells := make([]string, len(row))
		for j, c := range row {
			cells[j] = c.Str
		}
		out[i] = cells
	}
	return out
}

func TestRoundTripThroughScanner(t *testing.T) {
	inputs := []string{
		"a,b,c\n1,2,3\n4,5,6\n",
		`a,"b,c",d` + "\n",
		`a,"he said ""hi""",b` + "\n",
		"a,\"line1\nline2\",b\n",
		"a,b\nc,d",
	}
	for _, in := range inputs {
		rows := scanRows(t, in)

		var buf bytes.Buffer
		w := New(&buf, Config{})
		for _, row := range rows {
			if err := w.WriteRow(row); err != nil {
				t.Fatalf("WriteRow: %v", err)
			}
		}
		w.Flush()

		reRows := scanRows(t, buf.String())
		if len(reRows) != len(rows) {
			t.Fatalf("input %q: re-scan produced %d rows, want %d", in, len(reRows), len(rows))
		}
		for i := range rows {
			if len(reRows[i]) != len(rows[i]) {
				t.Fatalf("input %q row %d: got %v want %v", in, i, reRows[i], rows[i])
			}
			for j := range rows[i] {
				if reRows[i][j] != rows[i][j] {
					t.Errorf("input %q row %d cell %d: got %q want %q", in, i, j, reRows[i][j], rows[i][j])
				}
			}
		}
	}
}

func TestIdempotentQuoting(t *testing.T) {
	cells := []string{"plain", "has,comma", `has "quote"`, "has\nnewline"}
	var once bytes.Buffer
	w1 := New(&once, Config{})
	if err := w1.WriteRow(cells); err != nil {
		t.Fatalf("WriteRow: %v", err)
	}
	w1.Flush()

	firstPass := scanRows(t, once.String())[0]

	var twice bytes.Buffer
	w := New(&twice, Config{})
	w.WriteRow(firstPass)
	w.Flush()

	secondPass := scanRows(t, twice.String())[0]

	if len(firstPass) != len(secondPass) {
		t.Fatalf("got %v, want %v", secondPass, firstPass)
	}
	for i := range firstPass {
		if firstPass[i] != secondPass[i] {
			t.Errorf("cell %d: writer(writer(cell)) = %q, want %q", i, secondPass[i], firstPass[i])
		}
	}
}
