// Command zsvbench generates a synthetic CSV file and reports the core
// scanner's throughput over it. It is a demonstration harness for the
// scanner package, not part of the core itself.
package main

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/JohnCGriffin/overflow"
	"github.com/schollz/progressbar/v3"

	"github.com/go-zsv/zsvcore/scanner"
)

func main() {
	sizeMB := 500
	if len(os.Args) > 1 {
		if n, err := fmt.Sscanf(os.Args[1], "%d", &sizeMB); err != nil || n != 1 {
			fmt.Println("Usage: zsvbench <size_mb>")
			os.Exit(1)
		}
	}

	fmt.Printf("Generating %d MB CSV...\n", sizeMB)
	tmpDir, err := os.MkdirTemp("", "zsvbench")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmpDir)

	csvPath := filepath.Join(tmpDir, "bench.csv")
	bytesWritten, rows, err := generateCSV(csvPath, int64(sizeMB)*1024*1024)
	if err != nil {
		panic(err)
	}
	fmt.Printf("Generated %d rows (%.2f MB)\n", rows, float64(bytesWritten)/1024/1024)

	f, err := os.Open(csvPath)
	if err != nil {
		panic(err)
	}
	defer f.Close()

	bar := progressbar.DefaultBytes(bytesWritten, "scanning")

	var lastOffset int64
	cfg := scanner.DefaultConfig()
	cfg.KeepEmptyHeaderRows = true
	cfg.ProgressEveryRows = 50_000
	cfg.ProgressFunc = func(p scanner.Progress) {
		delta, ok := overflow.Sub64(p.ByteOffset, lastOffset)
		if !ok || delta < 0 {
			delta = 0
		}
		lastOffset = p.ByteOffset
		_ = bar.Add64(delta)
	}

	var dataRows int64
	sink := scanner.SinkFuncs{
		RowFunc: func() bool {
			dataRows++
			return false
		},
	}

	sc, err := scanner.New(cfg, scanner.ModeDelim, f, sink)
	if err != nil {
		panic(err)
	}

	start := time.Now()
	for {
		status, err := sc.ParseMore()
		if err != nil {
			panic(err)
		}
		if status.String() == "no_more_input" {
			break
		}
	}
	if _, err := sc.Finish(); err != nil {
		panic(err)
	}
	elapsed := time.Since(start)
	bar.Finish()

	mbPerSec := float64(bytesWritten) / 1024 / 1024 / elapsed.Seconds()

	fmt.Printf("\n--------------------------------------------------\n")
	fmt.Printf("Rows scanned: %d\n", dataRows)
	fmt.Printf("Throughput:   %.2f MB/s\n", mbPerSec)
	fmt.Printf("Time:         %v\n", elapsed)
	fmt.Printf("--------------------------------------------------\n")
}

func generateCSV(path string, limit int64) (int64, int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	w := bufio.NewWriterSize(f, 64*1024)
	w.WriteString("id,code,value,description\n")

	var bytesWritten int64
	var rows int
	buf := make([]byte, 0, 1024)
	rng := rand.New(rand.NewSource(123))

	for bytesWritten < limit {
		rows++
		buf = buf[:0]
		buf = fmt.Appendf(buf, "%d,US-%d,%d,\"Description for item %d with some padding to make it longer\"\n", rows, rng.Intn(1000), rng.Intn(10000), rows)
		n, err := w.Write(buf)
		if err != nil {
			return bytesWritten, rows, err
		}
		total, ok := overflow.Add64(bytesWritten, int64(n))
		if !ok {
			return bytesWritten, rows, fmt.Errorf("zsvbench: byte count overflowed int64")
		}
		bytesWritten = total
	}
	return bytesWritten, rows, w.Flush()
}
