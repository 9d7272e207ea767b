//go:build linux

package platform

import (
	"os"

	"golang.org/x/sys/unix"
)

// copyAt copies n bytes at off with copy_file_range, falling back to
// read/write for the rest of the file once the kernel refuses.
func (c *fdCopier) copyAt(off, n int64) (int64, error) {
	if !c.noRange {
		roff, woff := off, off
		w, err := unix.CopyFileRange(int(c.src.Fd()), &roff, int(c.dst.Fd()), &woff, int(n), 0)
		if err == nil {
			return int64(w), nil
		}
		if !isFallbackErr(err) {
			return 0, err
		}
		c.noRange = true
	}
	return c.readWriteAt(off, n)
}

// preallocate reserves blocks without changing the file size, so a stopped
// restartable copy leaves a partial whose length is the bytes written.
// Errors are ignored as fallocate is not supported on all filesystems.
//
//nolint:gosec // G115: fd values are small non-negative integers
func preallocate(fd *os.File, size int64) {
	if size <= 0 {
		return
	}
	//nolint:errcheck // fallocate is advisory; not supported on all filesystems
	unix.Fallocate(int(fd.Fd()), unix.FALLOC_FL_KEEP_SIZE, 0, size)
}
