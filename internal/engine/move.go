package engine

import (
	"fmt"

	"github.com/bamsammich/ferry/internal/platform"
	"github.com/bamsammich/ferry/internal/progress"
)

// MoveFile moves src to dst, replacing an existing destination file. When
// src is a file and dst an existing directory, the file moves into dst.
// Across devices the move falls back to copy and delete. Moves cannot be
// cancelled; a progress callback error stops the move and is returned.
func (e *Engine) MoveFile(src, dst string, onProgress progress.Func) error {
	kind, err := Classify(e.fs, src)
	if err != nil {
		return fmt.Errorf("classify source %s: %w", src, err)
	}
	switch kind {
	case KindNotFound:
		return fmt.Errorf("source %s does not exist: %w", src, ErrInvalidArgument)
	case KindFile:
		if dst, err = e.correctDestination(src, dst); err != nil {
			return err
		}
	}

	started := e.now()
	var cbErr error
	err = e.copier.MoveFile(platform.MoveRequest{
		Src: src,
		Dst: dst,
		Flags: platform.MoveFlags{
			ReplaceExisting: true,
			CopyAllowed:     true,
			WriteThrough:    true,
		},
		OnChunk: func(ci platform.ChunkInfo) platform.Action {
			s := progress.New(started, e.now())
			s.ProcessedFile = src
			s.Total = ci.TotalSize
			s.Transferred = ci.Transferred
			s.BytesTransferred = ci.Transferred
			s.StreamSize = ci.StreamSize
			if cbErr = deliver(onProgress, s); cbErr != nil {
				return platform.Stop
			}
			return platform.Continue
		},
	})
	if cbErr != nil {
		return fmt.Errorf("move %s: %w", src, cbErr)
	}
	if err != nil {
		return fmt.Errorf("move %s: %w", src, err)
	}
	e.log.Debug("moved", "src", src, "dst", dst)
	return nil
}
