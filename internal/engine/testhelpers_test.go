package engine

import (
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/ferry/internal/platform"
	"github.com/bamsammich/ferry/internal/progress"
)

// testTreeSize is the byte total of the tree created by createMemTree.
const testTreeSize = 17 + 19 + 17

// createMemTree populates an in-memory fs with:
//
//	/src/root.txt          (17 bytes)
//	/src/sub/mid.txt       (19 bytes)
//	/src/sub/deep/leaf.txt (17 bytes)
//	/src/empty/
func createMemTree(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/src/sub/deep", 0o755))
	require.NoError(t, fs.MkdirAll("/src/empty", 0o755))
	writeFile(t, fs, "/src/root.txt", "root file content")
	writeFile(t, fs, "/src/sub/mid.txt", "middle file content")
	writeFile(t, fs, "/src/sub/deep/leaf.txt", "leaf file content")
	return fs
}

func writeFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
}

func readFile(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	return string(data)
}

// recorder collects every snapshot it receives.
type recorder struct {
	mu    sync.Mutex
	snaps []progress.Snapshot
}

func (r *recorder) record(s progress.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, s)
	return nil
}

func (r *recorder) all() []progress.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]progress.Snapshot(nil), r.snaps...)
}

func (r *recorder) last(t *testing.T) progress.Snapshot {
	t.Helper()
	snaps := r.all()
	require.NotEmpty(t, snaps)
	return snaps[len(snaps)-1]
}

// fakeClock advances by step on every reading.
type fakeClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func newFakeClock(step time.Duration) *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), step: step}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(c.step)
	return c.now
}

var errInjected = errors.New("injected failure")

// failingCopier fails copies whose source path ends with suffix and
// delegates everything else.
type failingCopier struct {
	platform.Copier
	suffix string
}

func (c *failingCopier) CopyFile(req platform.CopyRequest) error {
	if strings.HasSuffix(req.Src, c.suffix) {
		return errInjected
	}
	return c.Copier.CopyFile(req)
}
