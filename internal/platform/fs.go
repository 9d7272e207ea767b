package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// FS is a Copier over an afero.Fs. It follows the same temp-file, restart
// and callback rules as Native using plain ReadAt/WriteAt.
type FS struct {
	Fs afero.Fs
}

// NewFS returns a copier over fs.
func NewFS(fs afero.Fs) *FS {
	return &FS{Fs: fs}
}

func (c *FS) CopyFile(req CopyRequest) error {
	src, err := c.Fs.Open(req.Src)
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
	tmpPath, dst, offset, err := c.openDst(req, src, size, perm)
	if err != nil {
		return err
	}
	keep := false
	defer func() {
		if !keep {
			_ = c.Fs.Remove(tmpPath)
		}
	}()

	buf := make([]byte, chunkSize)
	p := &pump{req: req, size: size, copyAt: func(off, n int64) (int64, error) {
		r, err := src.ReadAt(buf[:n], off)
		if r == 0 {
			return 0, ignoreEOF(err)
		}
		if _, err := dst.WriteAt(buf[:r], off); err != nil {
			return 0, err
		}
		return int64(r), nil
	}}
	if err := p.run(offset); err != nil {
		dst.Close()
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
	if err := c.Fs.Rename(tmpPath, req.Dst); err != nil {
		return fmt.Errorf("rename %s -> %s: %w", tmpPath, req.Dst, err)
	}
	if perm&ownerWrite == 0 {
		if err := c.Fs.Chmod(req.Dst, perm); err != nil {
			return fmt.Errorf("chmod %s: %w", req.Dst, err)
		}
	}
	return nil
}

func (c *FS) openDst(req CopyRequest, src afero.File, size int64, perm os.FileMode) (string, afero.File, int64, error) {
	if !req.Flags.Restartable {
		tmpPath := filepath.Join(filepath.Dir(req.Dst),
			fmt.Sprintf(".%s.%s.ferry-tmp", filepath.Base(req.Dst), uuid.New().String()[:8]))
		fd, err := c.Fs.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm|ownerWrite)
		if err != nil {
			return "", nil, 0, fmt.Errorf("create tmp %s: %w", tmpPath, err)
		}
		return tmpPath, fd, 0, nil
	}

	partial := req.Dst + PartialSuffix
	fd, err := c.Fs.OpenFile(partial, os.O_RDWR|os.O_CREATE, perm|ownerWrite)
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
		offset = 0
	}
	if err := fd.Truncate(offset); err != nil {
		fd.Close()
		return "", nil, 0, fmt.Errorf("truncate partial %s: %w", partial, err)
	}
	return partial, fd, offset, nil
}

// MoveFile renames within the Fs. A rename failing with a cross-device
// link error falls back to copy+remove when CopyAllowed is set.
func (c *FS) MoveFile(req MoveRequest) error {
	info, err := c.Fs.Stat(req.Src)
	if err != nil {
		return err
	}
	if !req.Flags.ReplaceExisting {
		if _, err := c.Fs.Stat(req.Dst); err == nil {
			return fmt.Errorf("move %s: %s: %w", req.Src, req.Dst, ErrExists)
		}
	}

	err = c.Fs.Rename(req.Src, req.Dst)
	if err == nil {
		return nil
	}
	if !isCrossDevice(err) || !req.Flags.CopyAllowed {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("move %s: cross-device directory moves are not supported: %w", req.Src, err)
	}

	if err := c.CopyFile(CopyRequest{
		Src:     req.Src,
		Dst:     req.Dst,
		OnChunk: req.OnChunk,
		Flags:   CopyFlags{WriteThrough: req.Flags.WriteThrough},
	}); err != nil {
		return err
	}
	if err := c.Fs.Remove(req.Src); err != nil {
		return fmt.Errorf("remove moved source %s: %w", req.Src, err)
	}
	return nil
}
