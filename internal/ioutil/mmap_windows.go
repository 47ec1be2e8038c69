//go:build windows

package ioutil

import (
	"io"
	"os"
)

// mmapFile falls back to a full read on Windows; a real Windows mapping
// needs CreateFileMapping/MapViewOfFile, not worth the unsafe-pointer
// plumbing for a reference implementation.
func mmapFile(f *os.File) ([]byte, error) {
	return io.ReadAll(f)
}

// munmapFile is a no-op for the ReadAll fallback.
func munmapFile(data []byte) error {
	return nil
}
