package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bamsammich/ferry/internal/platform"
	"github.com/bamsammich/ferry/internal/progress"
	"github.com/bamsammich/ferry/internal/stats"
)

// destRoot returns the directory the contents of srcDir are copied into.
func destRoot(srcDir, dstDir string, contents bool) (string, error) {
	if contents {
		return dstDir, nil
	}
	if srcDir == filepath.Dir(srcDir) {
		return "", fmt.Errorf("%w: %s has no name to copy into %s; use CopyFolderContents",
			ErrInvalidArgument, srcDir, dstDir)
	}
	return filepath.Join(dstDir, filepath.Base(srcDir)), nil
}

// errHalt stops a walk; the reason is carried by the caller's closure.
var errHalt = errors.New("walk halted")

// CopyTree copies the directory srcDir into dstDir. The tree is scanned once
// up front; its size is the Total of every snapshot. Subdirectories are
// created before any file is copied, and files are copied one at a time in
// lexical walk order. Without CopyFolderContents the tree lands in
// dstDir/<base of srcDir>; a filesystem root has no base name and is rejected
// unless CopyFolderContents is set.
func (e *Engine) CopyTree(
	ctx context.Context,
	srcDir, dstDir string,
	onProgress progress.Func,
	opts Options,
) Result {
	return e.copyTree(ctx, e.newRun(opts, stats.NewCollector()), srcDir, dstDir, onProgress)
}

func (e *Engine) copyTree(
	ctx context.Context,
	r *run,
	srcDir, dstDir string,
	onProgress progress.Func,
) Result {
	if err := ctx.Err(); err != nil {
		return r.result(Cancelled, err)
	}
	srcDir = filepath.Clean(srcDir)
	root, err := destRoot(srcDir, dstDir, r.opts.CopyFolderContents)
	if err != nil {
		return r.result(Failed, err)
	}

	tree := scan(e.fs, srcDir, e.log)
	r.stats.SetTotals(tree.Files, tree.Dirs, tree.Size)
	e.log.Debug("scan complete",
		"src", srcDir, "files", tree.Files, "dirs", tree.Dirs, "bytes", tree.Size)

	if err := e.fs.MkdirAll(root, 0o755); err != nil {
		return r.result(Failed, fmt.Errorf("create destination %s: %w", root, err))
	}

	var (
		status = Success
		cause  error
	)
	halt := func(s Status, err error) error {
		status, cause = s, err
		return errHalt
	}
	target := func(path string) (string, error) {
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return "", fmt.Errorf("relative path of %s: %w", path, err)
		}
		return filepath.Join(root, rel), nil
	}

	// Mirror the directory structure first so empty directories exist even
	// when a later file fails.
	err = walk(e.fs, srcDir, func(path string, info os.FileInfo) error {
		if !info.IsDir() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return halt(Cancelled, err)
		}
		dst, err := target(path)
		if err != nil {
			return err
		}
		if err := e.fs.MkdirAll(dst, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dst, err)
		}
		r.stats.AddDirsCreated(1)
		return nil
	})
	if done, res := r.walkResult(err, status, cause); done {
		return res
	}

	th := newThrottle(onProgress, r.opts.ProgressInterval)
	var copied int64

	err = walk(e.fs, srcDir, func(path string, info os.FileInfo) error {
		if !info.Mode().IsRegular() {
			if !info.IsDir() {
				e.log.Debug("skipping non-regular file", "path", path, "mode", info.Mode().String())
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return halt(Cancelled, err)
		}
		dst, err := target(path)
		if err != nil {
			return err
		}

		base := copied
		fileStatus, fileErr := e.copyOne(ctx, r, path, dst, func(ci platform.ChunkInfo) error {
			r.stats.SetInFlight(ci.Transferred)
			now := e.now()
			s := progress.New(r.started, now)
			s.ProcessedFile = path
			s.Total = tree.Size
			s.StreamSize = tree.Size
			s.Transferred = base + ci.Transferred
			s.BytesTransferred = s.Transferred
			return th.offer(s, now)
		})
		r.stats.SetInFlight(0)
		copied += info.Size()

		switch fileStatus {
		case Success:
			r.stats.AddFilesCopied(1)
			r.stats.AddBytesCopied(info.Size())
		case Failed:
			r.stats.AddFilesFailed(1)
			var cbErr *callbackError
			if !r.opts.ContinueOnFailure || errors.As(fileErr, &cbErr) {
				return halt(Failed, fileErr)
			}
			r.failures = append(r.failures, FileFailure{Path: path, Err: fileErr})
			e.log.Warn("file copy failed, continuing", "path", path, "error", fileErr)
		case Cancelled:
			return halt(Cancelled, fileErr)
		}
		return nil
	})
	if done, res := r.walkResult(err, status, cause); done {
		return res
	}

	if err := th.flush(); err != nil {
		return r.result(callbackStatus(err), err)
	}
	return r.result(Success, nil)
}

// walkResult converts the outcome of a walk into a final Result when the
// walk did not complete.
func (r *run) walkResult(err error, status Status, cause error) (bool, Result) {
	switch {
	case err == nil:
		return false, Result{}
	case errors.Is(err, errHalt):
		return true, r.result(status, cause)
	default:
		return true, r.result(Failed, err)
	}
}
