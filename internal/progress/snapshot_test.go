package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bamsammich/ferry/internal/units"
)

func TestSnapshotZeroValue(t *testing.T) {
	var s Snapshot
	assert.Zero(t, s.Fraction())
	assert.Zero(t, s.Percentage())
	assert.Zero(t, s.BytesPerSecond())
	assert.Equal(t, "Total: 0, BytesTransferred: 0, Percentage: 0", s.String())
}

func TestSnapshotDerived(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := New(start, start.Add(2*time.Second))
	s.Total = 4096
	s.Transferred = 1024
	s.BytesTransferred = 1024

	assert.Equal(t, 2*time.Second, s.Elapsed)
	assert.InDelta(t, 512.0, s.BytesPerSecond(), 1e-9)
	assert.InDelta(t, 0.25, s.Fraction(), 1e-9)
	assert.InDelta(t, 25.0, s.Percentage(), 1e-9)
	assert.Equal(t, "Total: 4096, BytesTransferred: 1024, Percentage: 25", s.String())
	assert.Equal(t, "Total: 4.0 KB, BytesTransferred: 1.0 KB, Percentage: 25", s.Formatted(units.Windows, 1))
	assert.Equal(t, "512.0 bytes/sec", s.RateFormatted(units.Windows, 1))
}

func TestSnapshotIsValue(t *testing.T) {
	s := Snapshot{Total: 10, BytesTransferred: 5}
	cp := s
	cp.BytesTransferred = 10
	assert.Equal(t, int64(5), s.BytesTransferred)
}
