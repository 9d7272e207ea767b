package stats

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Collector tracks transfer statistics using lock-free atomic counters. The
// engine writes from its single worker; readers may poll concurrently.
type Collector struct {
	startTime     time.Time
	filesTotal    atomic.Int64
	dirsTotal     atomic.Int64
	bytesTotal    atomic.Int64
	filesCopied   atomic.Int64
	filesFailed   atomic.Int64
	bytesCopied   atomic.Int64
	dirsCreated   atomic.Int64
	bytesInFlight atomic.Int64
}

// NewCollector creates a Collector with startTime set to now.
func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

// SetTotals records scan totals (called once when the pre-scan completes).
func (c *Collector) SetTotals(files, dirs, bytes int64) {
	c.filesTotal.Store(files)
	c.dirsTotal.Store(dirs)
	c.bytesTotal.Store(bytes)
}

// Snapshot is a point-in-time read of all counters.
type Snapshot struct {
	FilesTotal  int64
	DirsTotal   int64
	BytesTotal  int64
	FilesCopied int64
	FilesFailed int64
	BytesCopied int64
	DirsCreated int64
	// BytesInFlight is the partial byte count of the file being copied.
	BytesInFlight int64
	Elapsed       time.Duration
}

func (c *Collector) AddFilesCopied(n int64) { c.filesCopied.Add(n) }
func (c *Collector) AddFilesFailed(n int64) { c.filesFailed.Add(n) }
func (c *Collector) AddBytesCopied(n int64) { c.bytesCopied.Add(n) }
func (c *Collector) AddDirsCreated(n int64) { c.dirsCreated.Add(n) }

// SetInFlight records the partial byte count of the current file.
func (c *Collector) SetInFlight(n int64) { c.bytesInFlight.Store(n) }

// Snapshot returns a point-in-time read of all counters.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		FilesTotal:    c.filesTotal.Load(),
		DirsTotal:     c.dirsTotal.Load(),
		BytesTotal:    c.bytesTotal.Load(),
		FilesCopied:   c.filesCopied.Load(),
		FilesFailed:   c.filesFailed.Load(),
		BytesCopied:   c.bytesCopied.Load(),
		DirsCreated:   c.dirsCreated.Load(),
		BytesInFlight: c.bytesInFlight.Load(),
		Elapsed:       c.Elapsed(),
	}
}

// Elapsed returns time since collector creation.
func (c *Collector) Elapsed() time.Duration {
	return time.Since(c.startTime)
}

// AvgSpeed is the mean throughput in bytes/sec over the whole run.
func (s Snapshot) AvgSpeed() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.BytesCopied) / s.Elapsed.Seconds()
}

func (s Snapshot) String() string {
	return fmt.Sprintf(
		"copied=%d/%d failed=%d bytes=%d/%d dirs=%d/%d",
		s.FilesCopied, s.FilesTotal, s.FilesFailed,
		s.BytesCopied, s.BytesTotal, s.DirsCreated, s.DirsTotal,
	)
}
