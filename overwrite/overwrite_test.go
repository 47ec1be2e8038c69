package overwrite

import (
	"strings"
	"testing"

	"github.com/go-zsv/zsvcore/scanner"
)

func mergeAll(t *testing.T, data string, src Source) [][]string {
	t.Helper()
	var rec scanner.RowRecorder
	ms := NewMergeSink(&rec, src)
	cfg := scanner.DefaultConfig()
	cfg.KeepEmptyHeaderRows = true
	sc, err := scanner.New(cfg, scanner.ModeDelim, strings.NewReader(data), ms)
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
	if ms.Err() != nil {
		t.Fatalf("merge: %v", ms.Err())
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

func TestMergeSinkSubstitutesMatchingCell(t *testing.T) {
	data := "a,b,c\n1,2,3\n4,5,6\n"
	src := FromMap(map[int]map[int]string{1: {1: "REPLACED"}})
	rows := mergeAll(t, data, src)
	want := [][]string{{"a", "b", "c"}, {"1", "REPLACED", "3"}, {"4", "5", "6"}}
	for i := range want {
		for j := range want[i] {
			if rows[i][j] != want[i][j] {
				t.Errorf("row %d cell %d = %q, want %q", i, j, rows[i][j], want[i][j])
			}
		}
	}
}

func TestMergeSinkLeavesNonMatchingCellsAlone(t *testing.T) {
	data := "1,2\n3,4\n"
	src := FromMap(map[int]map[int]string{5: {5: "unreachable"}})
	rows := mergeAll(t, data, src)
	want := [][]string{{"1", "2"}, {"3", "4"}}
	for i := range want {
		for j := range want[i] {
			if rows[i][j] != want[i][j] {
				t.Errorf("row %d cell %d = %q, want %q", i, j, rows[i][j], want[i][j])
			}
		}
	}
}

func TestMergeSinkVirtualTrailingColumn(t *testing.T) {
	data := "1,2\n3,4\n"
	// column 2 does not exist in either row (rows are 0,1 wide); it must be
	// appended as a synthetic trailing cell rather than silently dropped.
	src := FromMap(map[int]map[int]string{0: {2: "extra"}})
	rows := mergeAll(t, data, src)
	if len(rows[0]) != 3 || rows[0][2] != "extra" {
		t.Fatalf("row 0 = %v, want trailing synthetic cell %q", rows[0], "extra")
	}
	if len(rows[1]) != 2 {
		t.Fatalf("row 1 = %v, want untouched 2-cell row", rows[1])
	}
}

func TestMergeSinkMultipleOverwritesSameRow(t *testing.T) {
	data := "a,b,c\n"
	src := FromMap(map[int]map[int]string{0: {0: "X", 2: "Z"}})
	rows := mergeAll(t, data, src)
	want := []string{"X", "b", "Z"}
	for j := range want {
		if rows[0][j] != want[j] {
			t.Errorf("cell %d = %q, want %q", j, rows[0][j], want[j])
		}
	}
}

func TestCSVSourceParsesHeaderAndEntries(t *testing.T) {
	r := strings.NewReader("row,column,value\n0,1,hello\n2,0,world\n")
	src, err := newCSVSourceFromReader(r)
	if err != nil {
		t.Fatalf("newCSVSourceFromReader: %v", err)
	}
	defer src.Close()

	e1, ok, err := src.Next()
	if err != nil || !ok {
		t.Fatalf("Next: %v %v", e1, err)
	}
	if e1.Row != 0 || e1.Col != 1 || e1.Value != "hello" {
		t.Errorf("first entry = %+v", e1)
	}
	e2, ok, err := src.Next()
	if err != nil || !ok {
		t.Fatalf("Next: %v %v", e2, err)
	}
	if e2.Row != 2 || e2.Col != 0 || e2.Value != "world" {
		t.Errorf("second entry = %+v", e2)
	}
	if _, ok, _ := src.Next(); ok {
		t.Fatalf("expected exhaustion after 2 entries")
	}
}

func TestCSVSourceMissingColumnFails(t *testing.T) {
	r := strings.NewReader("row,value\n0,1,hello\n")
	if _, err := newCSVSourceFromReader(r); err == nil {
		t.Fatal("expected error for missing required column")
	}
}

func TestCSVSourceUnsortedFails(t *testing.T) {
	r := strings.NewReader("row,column,value\n5,0,a\n1,0,b\n")
	if _, err := newCSVSourceFromReader(r); err == nil {
		t.Fatal("expected error for unsorted entries")
	}
}

func TestAutoDiscoverPath(t *testing.T) {
	got := AutoDiscoverPath("/data/x.csv")
	want := "/data/.zsv/data/x.csv/overwrites.sqlite3"
	if got != want {
		t.Errorf("AutoDiscoverPath = %q, want %q", got, want)
	}
}

func TestValidateReadOnlySelectRejectsWriteStatements(t *testing.T) {
	cases := []string{
		"DROP TABLE overwrites",
		"SELECT row,column,value FROM t; DELETE FROM t",
		"INSERT INTO t VALUES (1,2,3)",
		"",
	}
	for _, q := range cases {
		if err := validateReadOnlySelect(q); err == nil {
			t.Errorf("validateReadOnlySelect(%q) = nil, want error", q)
		}
	}
	if err := validateReadOnlySelect("SELECT row, column, value FROM overwrites ORDER BY row, column"); err != nil {
		t.Errorf("validateReadOnlySelect(select) = %v, want nil", err)
	}
}
