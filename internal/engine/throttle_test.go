package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/ferry/internal/progress"
)

func TestThrottle_FirstAlwaysForwarded(t *testing.T) {
	rec := &recorder{}
	th := newThrottle(rec.record, time.Hour)
	t0 := time.Now()

	require.NoError(t, th.offer(progress.Snapshot{Transferred: 1}, t0))
	require.NoError(t, th.offer(progress.Snapshot{Transferred: 2}, t0.Add(time.Minute)))
	require.NoError(t, th.offer(progress.Snapshot{Transferred: 3}, t0.Add(2*time.Minute)))

	snaps := rec.all()
	require.Len(t, snaps, 1)
	assert.Equal(t, int64(1), snaps[0].Transferred)
}

func TestThrottle_ForwardsAfterInterval(t *testing.T) {
	rec := &recorder{}
	th := newThrottle(rec.record, 10*time.Millisecond)
	t0 := time.Now()

	offers := []struct {
		at time.Duration
		n  int64
	}{
		{0, 1},
		{5 * time.Millisecond, 2},
		{10 * time.Millisecond, 3},
		{15 * time.Millisecond, 4},
		{19 * time.Millisecond, 5},
		{25 * time.Millisecond, 6},
	}
	for _, o := range offers {
		require.NoError(t, th.offer(progress.Snapshot{Transferred: o.n}, t0.Add(o.at)))
	}

	var got []int64
	for _, s := range rec.all() {
		got = append(got, s.Transferred)
	}
	assert.Equal(t, []int64{1, 3, 6}, got)
}

func TestThrottle_FlushForwardsLastSuppressed(t *testing.T) {
	rec := &recorder{}
	th := newThrottle(rec.record, time.Hour)
	t0 := time.Now()

	require.NoError(t, th.offer(progress.Snapshot{Transferred: 1}, t0))
	require.NoError(t, th.offer(progress.Snapshot{Transferred: 2}, t0.Add(time.Second)))
	require.NoError(t, th.offer(progress.Snapshot{Transferred: 3}, t0.Add(2*time.Second)))
	require.NoError(t, th.flush())
	require.NoError(t, th.flush())

	snaps := rec.all()
	require.Len(t, snaps, 2)
	assert.Equal(t, int64(3), snaps[1].Transferred)
}

func TestThrottle_DisabledForwardsEverything(t *testing.T) {
	for _, interval := range []time.Duration{0, NoThrottle} {
		rec := &recorder{}
		th := newThrottle(rec.record, interval)
		t0 := time.Now()
		for i := 0; i < 5; i++ {
			require.NoError(t, th.offer(progress.Snapshot{Transferred: int64(i)}, t0))
		}
		require.NoError(t, th.flush())
		assert.Len(t, rec.all(), 5, "interval %v", interval)
	}
}

func TestThrottle_PropagatesCallbackError(t *testing.T) {
	boom := errors.New("boom")
	th := newThrottle(func(progress.Snapshot) error { return boom }, 0)

	assert.ErrorIs(t, th.offer(progress.Snapshot{}, time.Now()), boom)
}

func TestDeliver_RecoversPanic(t *testing.T) {
	err := deliver(func(progress.Snapshot) error { panic("kaboom") }, progress.Snapshot{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")
}

func TestDeliver_NilFunc(t *testing.T) {
	assert.NoError(t, deliver(nil, progress.Snapshot{}))
}
