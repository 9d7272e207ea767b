package platform

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/zeebo/blake3"
)

// pump drives the chunk loop and callback protocol shared by every copier.
type pump struct {
	req    CopyRequest
	copyAt func(off, n int64) (int64, error)
	size   int64
}

// run copies from offset to the end of the source. It returns nil,
// ErrCancelled, ErrStopped or the I/O error that ended the copy.
func (p *pump) run(offset int64) error {
	done := offset
	if err := p.notify(done, 0); err != nil {
		return err
	}

	for done < p.size {
		if p.cancelled() {
			return ErrCancelled
		}

		want := min(int64(chunkSize), p.size-done)
		if err := p.wait(want); err != nil {
			return err
		}

		n, err := p.copyAt(done, want)
		if err != nil {
			return err
		}
		if n == 0 {
			// Source shrank underneath us.
			return fmt.Errorf("short copy at offset %d of %d: %w", done, p.size, io.ErrUnexpectedEOF)
		}
		done += n

		if err := p.notify(done, n); err != nil {
			return err
		}
	}

	if p.cancelled() {
		return ErrCancelled
	}
	return nil
}

func (p *pump) notify(done, chunk int64) error {
	if p.req.OnChunk == nil {
		return nil
	}
	switch p.req.OnChunk(ChunkInfo{
		TotalSize:   p.size,
		Transferred: done,
		StreamSize:  p.size,
		ChunkBytes:  chunk,
	}) {
	case Cancel:
		return ErrCancelled
	case Stop:
		return ErrStopped
	}
	return nil
}

func (p *pump) cancelled() bool {
	return p.req.Cancel != nil && p.req.Cancel.Load()
}

func (p *pump) wait(n int64) error {
	lim := p.req.Limiter
	if lim == nil {
		return nil
	}
	ctx := p.req.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	for n > 0 {
		k := min(n, int64(lim.Burst()))
		if err := lim.WaitN(ctx, int(k)); err != nil {
			if ctx.Err() != nil {
				return ErrCancelled
			}
			return fmt.Errorf("bandwidth limiter: %w", err)
		}
		n -= k
	}
	return nil
}

// prefixMatches reports whether the first n bytes of a and b hash equal.
func prefixMatches(a, b io.ReaderAt, n int64) bool {
	ha, err := hashPrefix(a, n)
	if err != nil {
		return false
	}
	hb, err := hashPrefix(b, n)
	if err != nil {
		return false
	}
	return ha == hb
}

func hashPrefix(r io.ReaderAt, n int64) (string, error) {
	h := blake3.New()
	buf := make([]byte, 32*1024)
	if _, err := io.CopyBuffer(h, io.NewSectionReader(r, 0, n), buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
