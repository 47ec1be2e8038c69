package simd

import (
	"math/bits"
	"testing"
)

func bitPositions(m []uint64, n int) []int {
	var out []int
	for i := 0; i < n; i++ {
		if m[i/64]&(1<<uint(i%64)) != 0 {
			out = append(out, i)
		}
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestScanBasic(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantQuotes []int
		wantDelims []int
		wantCRs    []int
		wantLFs    []int
	}{
		{"empty", "", nil, nil, nil, nil},
		{"no structural bytes", "hello world", nil, nil, nil, nil},
		{"single quote", `a"b`, []int{1}, nil, nil, nil},
		{"single comma", "a,b", nil, []int{1}, nil, nil},
		{"crlf", "a\r\nb", nil, nil, []int{1}, []int{2}},
		{"mixed under one word", `a,"b"` + "\n", []int{2, 4}, []int{1}, nil, []int{5}},
		{"spans multiple words", "0123456789abcdef," + "ghijklmnopqrstuvwx\"", []int{35}, []int{16}, nil, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var m Masks
			m.Reset(len(tc.input))
			Scan([]byte(tc.input), ',', m)

			if got := bitPositions(m.Quotes, len(tc.input)); !equalInts(got, tc.wantQuotes) {
				t.Errorf("quotes = %v, want %v", got, tc.wantQuotes)
			}
			if got := bitPositions(m.Delims, len(tc.input)); !equalInts(got, tc.wantDelims) {
				t.Errorf("delims = %v, want %v", got, tc.wantDelims)
			}
			if got := bitPositions(m.CRs, len(tc.input)); !equalInts(got, tc.wantCRs) {
				t.Errorf("CRs = %v, want %v", got, tc.wantCRs)
			}
			if got := bitPositions(m.LFs, len(tc.input)); !equalInts(got, tc.wantLFs) {
				t.Errorf("LFs = %v, want %v", got, tc.wantLFs)
			}
		})
	}
}

func TestScanCustomDelimiter(t *testing.T) {
	var m Masks
	input := "a;b;c\n"
	m.Reset(len(input))
	Scan([]byte(input), ';', m)
	if got := bitPositions(m.Delims, len(input)); !equalInts(got, []int{1, 3}) {
		t.Errorf("delims = %v, want [1 3]", got)
	}
}

// scanScalar is the naive byte-by-byte reference the vectorized Scan must
// agree with on every input, regardless of word alignment.
func scanScalar(data []byte, delim byte, m Masks) {
	for i, b := range data {
		setBit(m.Quotes, i, b == '"')
		setBit(m.Delims, i, b == delim)
		setBit(m.CRs, i, b == '\r')
		setBit(m.LFs, i, b == '\n')
	}
}

func FuzzScan(f *testing.F) {
	f.Add([]byte("a,b,c\n1,2,3\n"))
	f.Add([]byte(`a,"b,c",d` + "\r\n"))
	f.Add([]byte(""))
	f.Add([]byte("\"\"\"\",,,\r\r\n\n"))

	f.Fuzz(func(t *testing.T, data []byte) {
		var got, want Masks
		got.Reset(len(data))
		want.Reset(len(data))

		Scan(data, ',', got)
		scanScalar(data, ',', want)

		words := (len(data) + 63) / 64
		for w := 0; w < words; w++ {
			if got.Quotes[w] != want.Quotes[w] {
				t.Fatalf("quotes word %d: got %064b want %064b", w, bits.Reverse64(got.Quotes[w]), bits.Reverse64(want.Quotes[w]))
			}
			if got.Delims[w] != want.Delims[w] {
				t.Fatalf("delims word %d: got %064b want %064b", w, bits.Reverse64(got.Delims[w]), bits.Reverse64(want.Delims[w]))
			}
			if got.CRs[w] != want.CRs[w] {
				t.Fatalf("CRs word %d: got %064b want %064b", w, bits.Reverse64(got.CRs[w]), bits.Reverse64(want.CRs[w]))
			}
			if got.LFs[w] != want.LFs[w] {
				t.Fatalf("LFs word %d: got %064b want %064b", w, bits.Reverse64(got.LFs[w]), bits.Reverse64(want.LFs[w]))
			}
		}
	})
}
