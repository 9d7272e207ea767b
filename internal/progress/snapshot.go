// Package progress defines the point-in-time progress records handed to
// transfer callbacks.
package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/bamsammich/ferry/internal/units"
)

// ErrCancel is returned (possibly wrapped) by a Func to stop the transfer and
// have it reported as cancelled rather than failed.
var ErrCancel = errors.New("progress: cancel requested")

// Func receives progress notifications. Returning nil continues the
// transfer, an error wrapping ErrCancel stops it as a cancellation, and any
// other error stops it as a failure.
type Func func(Snapshot) error

// Snapshot is one immutable progress notification.
type Snapshot struct {
	Started       time.Time
	ProcessedFile string
	// Total is the denominator for the whole operation: the scanned tree
	// size or the single file size.
	Total int64
	// Transferred is cumulative for the whole operation.
	Transferred int64
	// BytesTransferred is the byte count the rate and percentage are
	// derived from. For tree transfers it equals Transferred.
	BytesTransferred int64
	StreamSize       int64
	Elapsed          time.Duration
}

// New builds a Snapshot stamped with the time elapsed since started.
func New(started, now time.Time) Snapshot {
	return Snapshot{Started: started, Elapsed: now.Sub(started)}
}

// BytesPerSecond is BytesTransferred over the elapsed time.
func (s Snapshot) BytesPerSecond() float64 {
	secs := s.Elapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(s.BytesTransferred) / secs
}

// Fraction is BytesTransferred/Total, or 0 when Total is not positive.
func (s Snapshot) Fraction() float64 {
	if s.Total <= 0 {
		return 0
	}
	return float64(s.BytesTransferred) / float64(s.Total)
}

func (s Snapshot) Percentage() float64 {
	return 100 * s.Fraction()
}

func (s Snapshot) String() string {
	return fmt.Sprintf("Total: %d, BytesTransferred: %d, Percentage: %g",
		s.Total, s.BytesTransferred, s.Percentage())
}

// Formatted is String with sizes rendered in the given unit style.
func (s Snapshot) Formatted(style units.Style, decimals int) string {
	return fmt.Sprintf("Total: %s, BytesTransferred: %s, Percentage: %g",
		units.Format(s.Total, style, decimals),
		units.Format(s.BytesTransferred, style, decimals),
		s.Percentage())
}

// RateFormatted renders the throughput as "<size>/sec".
func (s Snapshot) RateFormatted(style units.Style, decimals int) string {
	return units.Format(int64(s.BytesPerSecond()), style, decimals) + "/sec"
}
