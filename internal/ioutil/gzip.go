// Package ioutil provides input-side collaborators for the scanner: a
// transparent gzip input source and an mmap-backed reader.
package ioutil

import (
	"io"

	"github.com/klauspost/pgzip"
)

// GzipSource wraps an io.Reader whose content is gzip-compressed, the way
// Doomsbay's boldkit uses klauspost/pgzip to ingest large compressed tabular
// dumps — here repurposed as the scanner's read source: the scanner sees a
// plain byte stream and never has to know it was compressed. Parallel
// (multi-goroutine) decompression keeps a multi-core host's chunk buffer fed
// at close to scalar-decompression-plus-scan speed rather than
// decompression becoming the bottleneck.
type GzipSource struct {
	zr *pgzip.Reader
}

// NewGzipSource opens a parallel gzip reader over r. The caller is
// responsible for closing r after Close returns.
func NewGzipSource(r io.Reader) (*GzipSource, error) {
	zr, err := pgzip.NewReader(r)
	if err != nil {
		return nil, err
	}
	return &GzipSource{zr: zr}, nil
}

// Read implements io.Reader, decompressing directly into buf — the value
// the scanner's chunk-refill step calls to fill its buffer.
func (g *GzipSource) Read(buf []byte) (int, error) {
	return g.zr.Read(buf)
}

// Close releases the decompressor.
func (g *GzipSource) Close() error {
	return g.zr.Close()
}
