// Package platform provides the single-file copy and move primitives the
// transfer engine builds on.
package platform

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/time/rate"
)

// PartialSuffix is appended to the destination name of a restartable copy
// while it is in flight.
const PartialSuffix = ".ferry-partial"

const chunkSize = 1 << 20 // 1 MiB

// ownerWrite is added to the mode of in-flight files so a partial copy of a
// read-only source can be reopened; the source mode is restored after rename.
const ownerWrite = 0o200

var (
	// ErrCancelled is returned when the cancel flag was observed or the chunk
	// callback answered Cancel.
	ErrCancelled = errors.New("copy cancelled")
	// ErrStopped is returned when the chunk callback answered Stop.
	ErrStopped = errors.New("copy stopped by progress callback")
	// ErrExists is returned by MoveFile when the destination exists and
	// ReplaceExisting is not set.
	ErrExists = errors.New("destination already exists")
)

// Action is the chunk callback's answer.
type Action int

const (
	Continue Action = iota
	// Cancel stops the copy and discards the partial destination.
	Cancel
	// Stop stops the copy; a restartable copy keeps its partial file.
	Stop
)

func (a Action) String() string {
	switch a {
	case Continue:
		return "continue"
	case Cancel:
		return "cancel"
	case Stop:
		return "stop"
	default:
		return "unknown"
	}
}

// ChunkInfo describes progress after a chunk boundary. The first callback of
// every copy reports Transferred at the resume offset with ChunkBytes 0.
type ChunkInfo struct {
	TotalSize   int64
	Transferred int64
	StreamSize  int64
	ChunkBytes  int64
}

// ChunkFunc is invoked at every chunk boundary.
type ChunkFunc func(ChunkInfo) Action

// CopyFlags tune a single copy.
type CopyFlags struct {
	// Restartable keeps a partial file on failure and resumes from it on
	// the next attempt when its prefix still matches the source.
	Restartable bool
	// WriteThrough syncs the data to stable storage before reporting
	// completion.
	WriteThrough bool
}

// CopyRequest describes one file copy. Dst is the final file path; the
// copy always replaces an existing file.
type CopyRequest struct {
	// Ctx bounds limiter waits only; cancellation of the copy itself goes
	// through Cancel.
	Ctx     context.Context
	Cancel  *atomic.Bool
	Limiter *rate.Limiter
	OnChunk ChunkFunc
	Src     string
	Dst     string
	Flags   CopyFlags
}

// MoveFlags tune a move.
type MoveFlags struct {
	ReplaceExisting bool
	// CopyAllowed permits copy+delete when a rename is impossible because
	// source and destination are on different devices.
	CopyAllowed  bool
	WriteThrough bool
}

// MoveRequest describes one move. It has no cancellation channel.
type MoveRequest struct {
	OnChunk ChunkFunc
	Src     string
	Dst     string
	Flags   MoveFlags
}

// Copier is a copy/move primitive.
type Copier interface {
	CopyFile(req CopyRequest) error
	MoveFile(req MoveRequest) error
}

// NewBWLimiter creates a rate.Limiter that caps throughput to bytesPerSec.
// The burst is capped at one chunk so a single chunk never needs more than
// one wait.
func NewBWLimiter(bytesPerSec int64) *rate.Limiter {
	if bytesPerSec <= 0 {
		return nil
	}
	burst := chunkSize
	if bytesPerSec < int64(burst) {
		burst = int(bytesPerSec)
	}
	return rate.NewLimiter(rate.Limit(bytesPerSec), burst)
}
