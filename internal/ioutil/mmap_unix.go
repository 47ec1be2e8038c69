//go:build !windows

package ioutil

import (
	"os"

	"golang.org/x/sys/unix"
)

// mmapFile memory-maps f read-only for its full size for zero-copy access.
func mmapFile(f *os.File) ([]byte, error) {
	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if stat.Size() == 0 {
		return []byte{}, nil
	}
	return unix.Mmap(int(f.Fd()), 0, int(stat.Size()), unix.PROT_READ, unix.MAP_SHARED)
}

// munmapFile releases memory obtained from mmapFile.
func munmapFile(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	return unix.Munmap(data)
}
