package platform

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"
)

var bufPool = sync.Pool{
	New: func() any {
		b := make([]byte, chunkSize)
		return &b
	},
}

// Native copies and moves files on the host filesystem. Data lands in a
// temporary file next to the destination that is renamed into place once
// complete.
type Native struct {
	Logger *slog.Logger
}

// NewNative returns a Native copier logging to logger (slog.Default if nil).
func NewNative(logger *slog.Logger) *Native {
	if logger == nil {
		logger = slog.Default()
	}
	return &Native{Logger: logger}
}

func (n *Native) CopyFile(req CopyRequest) error {
	src, err := os.Open(req.Src)
	if err != nil {
		return err
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", req.Src, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", req.Src)
	}
	size := info.Size()

	perm := info.Mode().Perm()
	tmpPath, dst, offset, err := n.openDst(req, src, size, perm)
	if err != nil {
		return err
	}

	keep := false
	if !req.Flags.Restartable {
		RegisterTmp(tmpPath)
		defer DeregisterTmp(tmpPath)
	}
	defer func() {
		if !keep {
			_ = os.Remove(tmpPath)
		}
	}()

	preallocate(dst, size)

	c := &fdCopier{src: src, dst: dst}
	p := &pump{req: req, size: size, copyAt: c.copyAt}
	if err := p.run(offset); err != nil {
		dst.Close()
		// Only a stop or an I/O error leaves a partial behind for the next
		// restartable attempt; cancellation discards it.
		keep = req.Flags.Restartable && !errors.Is(err, ErrCancelled)
		if errors.Is(err, ErrCancelled) || errors.Is(err, ErrStopped) {
			return err
		}
		return fmt.Errorf("copy %s: %w", req.Src, err)
	}

	if req.Flags.WriteThrough {
		if err := dst.Sync(); err != nil {
			dst.Close()
			return fmt.Errorf("sync %s: %w", tmpPath, err)
		}
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, req.Dst); err != nil {
		return fmt.Errorf("rename %s -> %s: %w", tmpPath, req.Dst, err)
	}
	if perm&ownerWrite == 0 {
		if err := os.Chmod(req.Dst, perm); err != nil {
			return fmt.Errorf("chmod %s: %w", req.Dst, err)
		}
	}
	if req.Flags.WriteThrough {
		syncDir(filepath.Dir(req.Dst))
	}
	return nil
}

// openDst opens the file the data is written to and returns the offset the
// copy starts at.
func (n *Native) openDst(req CopyRequest, src *os.File, size int64, perm os.FileMode) (string, *os.File, int64, error) {
	if !req.Flags.Restartable {
		dir := filepath.Dir(req.Dst)
		tmpPath := filepath.Join(dir, fmt.Sprintf(".%s.%s.ferry-tmp", filepath.Base(req.Dst), uuid.New().String()[:8]))
		fd, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm|ownerWrite)
		if err != nil {
			return "", nil, 0, fmt.Errorf("create tmp %s: %w", tmpPath, err)
		}
		return tmpPath, fd, 0, nil
	}

	partial := req.Dst + PartialSuffix
	fd, err := os.OpenFile(partial, os.O_RDWR|os.O_CREATE, perm|ownerWrite)
	if err != nil {
		return "", nil, 0, fmt.Errorf("open partial %s: %w", partial, err)
	}
	info, err := fd.Stat()
	if err != nil {
		fd.Close()
		return "", nil, 0, fmt.Errorf("stat partial %s: %w", partial, err)
	}

	offset := info.Size()
	if offset > size || (offset > 0 && !prefixMatches(src, fd, offset)) {
		n.Logger.Debug("discarding stale partial", "path", partial, "partial", offset, "size", size)
		offset = 0
	}
	if err := fd.Truncate(offset); err != nil {
		fd.Close()
		return "", nil, 0, fmt.Errorf("truncate partial %s: %w", partial, err)
	}
	if offset > 0 {
		n.Logger.Debug("resuming partial copy", "path", req.Dst, "offset", offset)
	}
	return partial, fd, offset, nil
}

func (n *Native) MoveFile(req MoveRequest) error {
	info, err := os.Lstat(req.Src)
	if err != nil {
		return err
	}
	if !req.Flags.ReplaceExisting {
		if _, err := os.Lstat(req.Dst); err == nil {
			return fmt.Errorf("move %s: %s: %w", req.Src, req.Dst, ErrExists)
		}
	}

	err = os.Rename(req.Src, req.Dst)
	if err == nil {
		if req.Flags.WriteThrough {
			syncDir(filepath.Dir(req.Dst))
		}
		return nil
	}
	if !isCrossDevice(err) || !req.Flags.CopyAllowed {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("move %s: cross-device directory moves are not supported: %w", req.Src, err)
	}

	n.Logger.Debug("rename crossed devices, copying", "src", req.Src, "dst", req.Dst)
	if err := n.CopyFile(CopyRequest{
		Src:     req.Src,
		Dst:     req.Dst,
		OnChunk: req.OnChunk,
		Flags:   CopyFlags{WriteThrough: req.Flags.WriteThrough},
	}); err != nil {
		return err
	}
	if err := os.Remove(req.Src); err != nil {
		return fmt.Errorf("remove moved source %s: %w", req.Src, err)
	}
	return nil
}

// fdCopier moves byte ranges between two open files.
type fdCopier struct {
	src, dst *os.File
	noRange  bool
}

// readWriteAt copies using pread/pwrite with a pooled buffer.
func (c *fdCopier) readWriteAt(off, n int64) (int64, error) {
	bufp := bufPool.Get().(*[]byte)
	defer bufPool.Put(bufp)
	buf := (*bufp)[:n]

	r, err := unix.Pread(int(c.src.Fd()), buf, off)
	if err != nil {
		return 0, err
	}
	if r == 0 {
		return 0, nil
	}

	written := 0
	for written < r {
		w, err := unix.Pwrite(int(c.dst.Fd()), buf[written:r], off+int64(written))
		if err != nil {
			return int64(written), err
		}
		written += w
	}
	return int64(r), nil
}

func syncDir(dir string) {
	fd, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = fd.Sync()
	fd.Close()
}

// isFallbackErr returns true if err should trigger a fallback to read/write.
func isFallbackErr(err error) bool {
	switch {
	case errors.Is(err, unix.ENOSYS),
		errors.Is(err, unix.EXDEV),
		errors.Is(err, unix.EINVAL),
		errors.Is(err, unix.ENOTSUP),
		errors.Is(err, unix.EOPNOTSUPP):
		return true
	}
	return false
}
