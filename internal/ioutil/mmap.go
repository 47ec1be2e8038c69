package ioutil

import (
	"bytes"
	"io"
	"os"
)

// MmapReader presents a memory-mapped file as an io.Reader, for callers that
// want zero-syscall re-reads — e.g. the row index's seek-to-row path, which
// re-enters the scanner at an arbitrary byte offset and would otherwise pay
// a fresh read() per seek.
type MmapReader struct {
	data []byte
	pos  int
	f    *os.File
}

// OpenMmapReader memory-maps path and returns a reader over its full
// contents positioned at offset 0.
func OpenMmapReader(path string) (*MmapReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	data, err := mmapFile(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &MmapReader{data: data, f: f}, nil
}

// Read implements io.Reader over the mapped region.
func (m *MmapReader) Read(buf []byte) (int, error) {
	if m.pos >= len(m.data) {
		return 0, io.EOF
	}
	n := copy(buf, m.data[m.pos:])
	m.pos += n
	return n, nil
}

// Seek implements io.Seeker directly against the mapped memory — no syscall.
func (m *MmapReader) Seek(offset int64, whence int) (int64, error) {
	var base int
	switch whence {
	case 0:
		base = 0
	case 1:
		base = m.pos
	case 2:
		base = len(m.data)
	}
	newPos := base + int(offset)
	if newPos < 0 || newPos > len(m.data) {
		return 0, errSeekRange
	}
	m.pos = newPos
	return int64(newPos), nil
}

// IndexByteFrom finds the next occurrence of b at or after the current
// position, without copying, e.g. to locate the next row terminator while
// seeking.
func (m *MmapReader) IndexByteFrom(b byte) int {
	idx := bytes.IndexByte(m.data[m.pos:], b)
	if idx < 0 {
		return -1
	}
	return m.pos + idx
}

// Close unmaps the region and closes the underlying file descriptor.
func (m *MmapReader) Close() error {
	err := munmapFile(m.data)
	if cerr := m.f.Close(); err == nil {
		err = cerr
	}
	return err
}

type ioError string

func (e ioError) Error() string { return string(e) }

const (
	errSeekRange = ioError("ioutil: seek out of range")
)
