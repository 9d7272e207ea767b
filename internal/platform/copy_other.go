//go:build !linux

package platform

import "os"

func (c *fdCopier) copyAt(off, n int64) (int64, error) {
	return c.readWriteAt(off, n)
}

// preallocate is a no-op on non-Linux platforms (fallocate is Linux-only).
func preallocate(_ *os.File, _ int64) {}
