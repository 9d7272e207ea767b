package engine

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// SizeInfo accumulates the shape of a directory tree.
type SizeInfo struct {
	Files int64
	Dirs  int64
	Size  int64
}

// Add merges two accumulators component-wise.
func (s SizeInfo) Add(o SizeInfo) SizeInfo {
	return SizeInfo{
		Files: s.Files + o.Files,
		Dirs:  s.Dirs + o.Dirs,
		Size:  s.Size + o.Size,
	}
}

// Scan sums regular file sizes and counts files and subdirectories below
// root. A directory that cannot be listed contributes nothing; Scan never
// fails.
func Scan(fs afero.Fs, root string) SizeInfo {
	return scan(fs, root, nil)
}

func scan(fs afero.Fs, dir string, logger *slog.Logger) SizeInfo {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		if logger != nil {
			logger.Debug("scan: skipping unreadable directory", "path", dir, "error", err)
		}
		return SizeInfo{}
	}

	var info SizeInfo
	for _, entry := range entries {
		switch {
		case entry.IsDir():
			info.Dirs++
			info = info.Add(scan(fs, filepath.Join(dir, entry.Name()), logger))
		case entry.Mode().IsRegular():
			info.Files++
			info.Size += entry.Size()
		}
	}
	return info
}

// walk visits every entry below dir depth-first in lexical order, descending
// into a directory right after visiting it. Symlinks are reported, not
// followed.
func walk(fs afero.Fs, dir string, fn func(path string, info os.FileInfo) error) error {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return fmt.Errorf("read dir %s: %w", dir, err)
	}
	for _, info := range entries {
		path := filepath.Join(dir, info.Name())
		if err := fn(path, info); err != nil {
			return err
		}
		if info.IsDir() {
			if err := walk(fs, path, fn); err != nil {
				return err
			}
		}
	}
	return nil
}
