package batch

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cuongbtq/media-batch/internal/fetcher"
)

var errFakeResolve = errors.New("resolve failed")

// fakeFetcher writes small files in place of real downloads and tracks how
// many calls are in flight at once.
type fakeFetcher struct {
	mu          sync.Mutex
	failURLs    map[string]bool
	noAudio     bool
	noVideo     bool
	fetchErr    error
	combineErr  error
	delay       time.Duration
	beforeFetch func(ctx context.Context, url string) error

	inFlight    atomic.Int64
	maxInFlight atomic.Int64

	fetched  []string
	combined [][3]string
}

func (f *fakeFetcher) enter() func() {
	n := f.inFlight.Add(1)
	for {
		m := f.maxInFlight.Load()
		if n <= m || f.maxInFlight.CompareAndSwap(m, n) {
			break
		}
	}
	return func() { f.inFlight.Add(-1) }
}

func (f *fakeFetcher) ResolveMetadata(ctx context.Context, url string) (*fetcher.Metadata, error) {
	defer f.enter()()

	if f.beforeFetch != nil {
		if err := f.beforeFetch(ctx, url); err != nil {
			return nil, err
		}
	}

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if f.failURLs[url] {
		return nil, errFakeResolve
	}

	meta := &fetcher.Metadata{ID: "vid" + url[len(url)-1:], Title: "Clip " + url[len(url)-1:], WebpageURL: url}
	if !f.noAudio {
		meta.Formats = append(meta.Formats, fetcher.Format{FormatID: "140", Ext: "m4a", ACodec: "mp4a", VCodec: "none", ABR: 128})
	}
	if !f.noVideo {
		meta.Formats = append(meta.Formats, fetcher.Format{FormatID: "137", Ext: "mp4", ACodec: "none", VCodec: "avc1", Height: 1080})
	}
	return meta, nil
}

func (f *fakeFetcher) FetchSubResource(ctx context.Context, meta *fetcher.Metadata, format fetcher.Format, dest string) error {
	f.mu.Lock()
	f.fetched = append(f.fetched, dest)
	f.mu.Unlock()

	if f.fetchErr != nil {
		return f.fetchErr
	}
	return os.WriteFile(dest, []byte(format.FormatID), 0o644)
}

func (f *fakeFetcher) Combine(ctx context.Context, audio, video, out string) error {
	f.mu.Lock()
	f.combined = append(f.combined, [3]string{audio, video, out})
	f.mu.Unlock()

	if f.combineErr != nil {
		return f.combineErr
	}
	return os.WriteFile(out, []byte("combined"), 0o644)
}
