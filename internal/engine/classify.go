package engine

import (
	"errors"
	"os"

	"github.com/spf13/afero"
)

// Kind is what a path refers to.
type Kind int

const (
	KindNotFound Kind = iota
	KindFile
	KindDir
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDir:
		return "directory"
	default:
		return "not found"
	}
}

// Classify reports whether path is a file, a directory, or missing. The
// result is not cached. Stat errors other than non-existence are returned.
func Classify(fs afero.Fs, path string) (Kind, error) {
	info, err := fs.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return KindNotFound, nil
		}
		return KindNotFound, err
	}
	if info.IsDir() {
		return KindDir, nil
	}
	return KindFile, nil
}
