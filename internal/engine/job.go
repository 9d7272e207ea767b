package engine

import (
	"context"

	"github.com/bamsammich/ferry/internal/progress"
	"github.com/bamsammich/ferry/internal/stats"
)

// Job is a transfer running on its own goroutine.
type Job struct {
	done  chan struct{}
	stats *stats.Collector
	err   error
	res   Result
}

// Start runs Transfer in the background. Cancel ctx to stop it.
func (e *Engine) Start(
	ctx context.Context,
	src, dst string,
	onProgress progress.Func,
	opts Options,
) *Job {
	j := &Job{
		done:  make(chan struct{}),
		stats: stats.NewCollector(),
	}
	r := e.newRun(opts, j.stats)
	go func() {
		defer close(j.done)
		j.res, j.err = e.transfer(ctx, r, src, dst, onProgress)
	}()
	return j
}

// Done is closed when the transfer finishes.
func (j *Job) Done() <-chan struct{} { return j.done }

// Wait blocks until the transfer finishes and returns what Transfer would.
func (j *Job) Wait() (Result, error) {
	<-j.done
	return j.res, j.err
}

// Stats returns live counters while the transfer runs.
func (j *Job) Stats() stats.Snapshot { return j.stats.Snapshot() }

// StartMove runs MoveFile in the background. The channel receives exactly
// one value and is then closed.
func (e *Engine) StartMove(src, dst string, onProgress progress.Func) <-chan error {
	ch := make(chan error, 1)
	go func() {
		defer close(ch)
		ch <- e.MoveFile(src, dst, onProgress)
	}()
	return ch
}
