// Package engine transfers files and directory trees with progress
// reporting, cancellation and continue-on-failure.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/time/rate"

	"github.com/bamsammich/ferry/internal/platform"
	"github.com/bamsammich/ferry/internal/progress"
	"github.com/bamsammich/ferry/internal/stats"
)

// ErrInvalidArgument is returned when the source of a transfer does not exist.
var ErrInvalidArgument = errors.New("invalid argument")

// NoThrottle forwards every progress event.
const NoThrottle time.Duration = -1

// Status is the outcome of a transfer.
type Status int

const (
	Success Status = iota
	Failed
	Cancelled
)

func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case Failed:
		return "failed"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Options tune a transfer.
type Options struct {
	// ContinueOnFailure keeps copying the remaining files of a tree after a
	// file fails.
	ContinueOnFailure bool
	// CopyFolderContents copies the children of the source directory into
	// the destination instead of creating <dst>/<base(src)>.
	CopyFolderContents bool
	// ProgressInterval is the minimum spacing between forwarded tree
	// snapshots. Zero or NoThrottle forwards every event.
	ProgressInterval time.Duration
	Restartable      bool
	WriteThrough     bool
	// BandwidthLimit caps throughput in bytes per second. Zero is unlimited.
	BandwidthLimit int64
}

// FileFailure records a file that failed while ContinueOnFailure was set.
type FileFailure struct {
	Path string
	Err  error
}

// Result is the outcome of a transfer.
type Result struct {
	Status   Status
	Err      error
	Failures []FileFailure
	Stats    stats.Snapshot
}

// Config wires an Engine to its filesystem and copy primitive.
type Config struct {
	// Fs is used for classification, scanning and directory creation.
	// Defaults to the OS filesystem.
	Fs afero.Fs
	// Copier performs single-file copies and moves. Defaults to
	// platform.Native on the OS filesystem and platform.FS otherwise.
	Copier platform.Copier
	Logger *slog.Logger
	// Now overrides the clock used for snapshots and throttling.
	Now func() time.Time
}

// Engine runs transfers. It holds no per-transfer state and is safe for
// concurrent use.
type Engine struct {
	fs     afero.Fs
	copier platform.Copier
	log    *slog.Logger
	now    func() time.Time
}

// New creates an Engine, filling unset Config fields with defaults.
func New(cfg Config) *Engine {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Fs == nil {
		cfg.Fs = afero.NewOsFs()
	}
	if cfg.Copier == nil {
		if _, ok := cfg.Fs.(*afero.OsFs); ok {
			cfg.Copier = platform.NewNative(cfg.Logger)
		} else {
			cfg.Copier = platform.NewFS(cfg.Fs)
		}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Engine{
		fs:     cfg.Fs,
		copier: cfg.Copier,
		log:    cfg.Logger,
		now:    cfg.Now,
	}
}

// run is the state of one transfer call.
type run struct {
	started  time.Time
	limiter  *rate.Limiter
	stats    *stats.Collector
	failures []FileFailure
	opts     Options
}

func (e *Engine) newRun(opts Options, collector *stats.Collector) *run {
	return &run{
		started: e.now(),
		limiter: platform.NewBWLimiter(opts.BandwidthLimit),
		stats:   collector,
		opts:    opts,
	}
}

func (r *run) result(status Status, err error) Result {
	r.stats.SetInFlight(0)
	return Result{
		Status:   status,
		Err:      err,
		Failures: r.failures,
		Stats:    r.stats.Snapshot(),
	}
}

// Transfer copies src to dst. A directory source is copied as a tree; a file
// source is copied to dst, or into dst when dst is an existing directory.
// The returned error is non-nil only for ErrInvalidArgument; every other
// outcome is reported through Result.
func (e *Engine) Transfer(
	ctx context.Context,
	src, dst string,
	onProgress progress.Func,
	opts Options,
) (Result, error) {
	return e.transfer(ctx, e.newRun(opts, stats.NewCollector()), src, dst, onProgress)
}

func (e *Engine) transfer(
	ctx context.Context,
	r *run,
	src, dst string,
	onProgress progress.Func,
) (Result, error) {
	kind, err := Classify(e.fs, src)
	if err != nil {
		return r.result(Failed, fmt.Errorf("classify source %s: %w", src, err)), nil
	}

	switch kind {
	case KindNotFound:
		err := fmt.Errorf("source %s does not exist: %w", src, ErrInvalidArgument)
		return r.result(Failed, err), err
	case KindDir:
		return e.copyTree(ctx, r, src, dst, onProgress), nil
	}

	if err := ctx.Err(); err != nil {
		return r.result(Cancelled, err), nil
	}
	dstFile, err := e.correctDestination(src, dst)
	if err != nil {
		return r.result(Failed, err), nil
	}
	return e.copyFile(ctx, r, src, dstFile, onProgress), nil
}

// correctDestination appends the base name of src when dst is an existing
// directory.
func (e *Engine) correctDestination(src, dst string) (string, error) {
	kind, err := Classify(e.fs, dst)
	if err != nil {
		return "", fmt.Errorf("classify destination %s: %w", dst, err)
	}
	if kind == KindDir {
		return filepath.Join(dst, filepath.Base(src)), nil
	}
	return dst, nil
}

// CopyFile copies one file to dstFile, forwarding every chunk callback as a
// snapshot without throttling.
func (e *Engine) CopyFile(
	ctx context.Context,
	src, dstFile string,
	onProgress progress.Func,
	opts Options,
) Result {
	return e.copyFile(ctx, e.newRun(opts, stats.NewCollector()), src, dstFile, onProgress)
}

func (e *Engine) copyFile(
	ctx context.Context,
	r *run,
	src, dstFile string,
	onProgress progress.Func,
) Result {
	info, err := e.fs.Stat(src)
	if err != nil {
		r.stats.AddFilesFailed(1)
		return r.result(Failed, fmt.Errorf("stat %s: %w", src, err))
	}
	r.stats.SetTotals(1, 0, info.Size())

	status, err := e.copyOne(ctx, r, src, dstFile, func(ci platform.ChunkInfo) error {
		r.stats.SetInFlight(ci.Transferred)
		s := progress.New(r.started, e.now())
		s.ProcessedFile = src
		s.Total = ci.TotalSize
		s.Transferred = ci.Transferred
		s.BytesTransferred = ci.Transferred
		s.StreamSize = ci.StreamSize
		return deliver(onProgress, s)
	})

	switch status {
	case Success:
		r.stats.AddFilesCopied(1)
		r.stats.AddBytesCopied(info.Size())
	case Failed:
		r.stats.AddFilesFailed(1)
		e.log.Debug("file copy failed", "src", src, "dst", dstFile, "error", err)
	}
	return r.result(status, err)
}

// copyOne runs the primitive for one file. emit turns a chunk callback into
// a caller notification; its error decides how the copy stops.
func (e *Engine) copyOne(
	ctx context.Context,
	r *run,
	src, dst string,
	emit func(platform.ChunkInfo) error,
) (Status, error) {
	if err := ctx.Err(); err != nil {
		return Cancelled, err
	}

	var cancel atomic.Bool
	stop := context.AfterFunc(ctx, func() { cancel.Store(true) })
	defer stop()

	var cbErr error
	err := e.copier.CopyFile(platform.CopyRequest{
		Ctx:     ctx,
		Cancel:  &cancel,
		Limiter: r.limiter,
		Src:     src,
		Dst:     dst,
		Flags: platform.CopyFlags{
			Restartable:  r.opts.Restartable,
			WriteThrough: r.opts.WriteThrough,
		},
		OnChunk: func(ci platform.ChunkInfo) platform.Action {
			cbErr = emit(ci)
			switch {
			case cbErr == nil:
				return platform.Continue
			case errors.Is(cbErr, progress.ErrCancel):
				return platform.Cancel
			default:
				return platform.Stop
			}
		},
	})

	switch {
	case ctx.Err() != nil:
		return Cancelled, ctx.Err()
	case cbErr != nil:
		return callbackStatus(cbErr), &callbackError{err: cbErr}
	case errors.Is(err, platform.ErrCancelled):
		return Cancelled, err
	case err != nil:
		return Failed, fmt.Errorf("copy %s: %w", src, err)
	}
	return Success, nil
}

// callbackError marks an error that came from the caller's progress
// callback. It ends a tree transfer even under ContinueOnFailure.
type callbackError struct {
	err error
}

func (e *callbackError) Error() string { return e.err.Error() }
func (e *callbackError) Unwrap() error { return e.err }

// callbackStatus maps a progress callback error onto a Status.
func callbackStatus(err error) Status {
	if errors.Is(err, progress.ErrCancel) {
		return Cancelled
	}
	return Failed
}

// deliver invokes fn, turning a panic into an error.
func deliver(fn progress.Func, s progress.Snapshot) (err error) {
	if fn == nil {
		return nil
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("progress callback panicked: %v", p)
		}
	}()
	return fn(s)
}
