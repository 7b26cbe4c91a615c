//go:build unix

package memory

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Map maps a memory dump read-only so that borrowed strings point straight
// into the file's pages.
func Map(path string, base uint64) (*Physical, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, err
	}

	if st.Size() == 0 {
		return New(base, []byte{}), nil
	}

	buf, err := unix.Mmap(int(f.Fd()), 0, int(st.Size()), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}

	p := New(base, buf)
	p.unmap = func() error { return unix.Munmap(buf) }

	return p, nil
}
