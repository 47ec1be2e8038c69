// Command zsvcat scans a CSV file and writes it back to stdout, optionally
// applying an overwrite source and header policies. It exercises the core
// packages end to end but contains no scanning logic of its own.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/go-zsv/zsvcore/csvwriter"
	"github.com/go-zsv/zsvcore/overwrite"
	"github.com/go-zsv/zsvcore/scanner"
)

func main() {
	delimiter := flag.String("delimiter", ",", "field delimiter (single byte)")
	skipRows := flag.Int("skip", 0, "raw rows to skip before header policies run")
	headerSpan := flag.Int("header-span", 1, "rows to collate into one header row")
	overwritePath := flag.String("overwrite", "", "overwrite source path or sqlite3:// URL; auto-discovered if empty")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: zsvcat [flags] <path.csv>")
		os.Exit(1)
	}
	path := flag.Arg(0)
	if *delimiter == "" {
		fmt.Fprintln(os.Stderr, "zsvcat: -delimiter must not be empty")
		os.Exit(1)
	}

	f, err := os.Open(path)
	if err != nil {
		fatal(err)
	}
	defer f.Close()

	cfg := scanner.DefaultConfig()
	cfg.Delimiter = (*delimiter)[0]
	cfg.RowsToIgnore = *skipRows
	cfg.HeaderSpan = *headerSpan

	w := csvwriter.New(os.Stdout, csvwriter.Config{Delimiter: cfg.Delimiter})

	var row []string
	base := scanner.SinkFuncs{
		CellFunc: func(b []byte, _ scanner.CellFlags) { row = append(row, string(b)) },
		RowFunc: func() bool {
			if err := w.WriteRow(row); err != nil {
				fatal(err)
			}
			row = row[:0]
			return false
		},
	}

	var sink scanner.Sink = base

	ow := *overwritePath
	if ow == "" {
		candidate := overwrite.AutoDiscoverPath(path)
		if _, err := os.Stat(candidate); err == nil {
			ow = candidate
		}
	}
	if ow != "" {
		src, err := overwrite.Open(ow)
		if err != nil {
			fatal(err)
		}
		defer src.Close()
		sink = overwrite.NewMergeSink(base, src)
	}

	sc, err := scanner.New(cfg, scanner.ModeDelim, f, sink)
	if err != nil {
		fatal(err)
	}
	for {
		status, err := sc.ParseMore()
		if err != nil {
			fatal(err)
		}
		if status.String() == "no_more_input" {
			break
		}
	}
	if _, err := sc.Finish(); err != nil {
		fatal(err)
	}
	if err := w.Flush(); err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "zsvcat:", err)
	os.Exit(1)
}
