// Package global adapts a slab.Cache to the two-call interface a runtime
// memory subsystem expects: Allocate(size, align) and Release(p, size, align).
//
// Requests that fit a size class and need at most slab.SlotAlign alignment
// are served by one shared cache guarded by a mutex. Everything else is
// forwarded to the raw provider. With Options.Passthrough set every request
// goes to the provider and the cache is never built.
package global

import (
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"github.com/joshuapare/slabkit/internal/logger"
	"github.com/joshuapare/slabkit/rawmem"
	"github.com/joshuapare/slabkit/slab"
)

// Options configures an Allocator.
type Options struct {
	// Config is the cache configuration. Nil means slab.DefaultConfig.
	Config *slab.Config

	// Fallback serves requests the cache cannot. Nil means rawmem.Default().
	Fallback rawmem.Provider

	// Passthrough sends every request to Fallback.
	Passthrough bool
}

// Allocator is safe for concurrent use.
type Allocator struct {
	mu       sync.Mutex
	cache    *slab.Cache // nil in passthrough mode
	fallback rawmem.Provider

	cacheAllocs    atomic.Int64
	fallbackAllocs atomic.Int64
	failures       atomic.Int64
	releases       atomic.Int64
}

// Stats is a snapshot of the adapter's counters.
type Stats struct {
	CacheAllocs    int64 // requests served by the slab cache
	FallbackAllocs int64 // requests served by the fallback provider
	Failures       int64 // requests that returned an error
	Releases       int64 // Release calls
}

// New builds an adapter.
func New(opts Options) (*Allocator, error) {
	a := &Allocator{fallback: opts.Fallback}
	if a.fallback == nil {
		a.fallback = rawmem.Default()
	}
	if opts.Passthrough {
		return a, nil
	}
	cache, err := slab.NewCache(opts.Config)
	if err != nil {
		return nil, errors.Wrap(err, "global: build cache")
	}
	a.cache = cache
	logger.Debug("global allocator ready", "cache", cache.ID(), "classes", cache.Classes())
	return a, nil
}

// cached reports whether a request of this shape belongs to the cache. The
// same answer must come back at release time, so it depends only on size
// and align.
func (a *Allocator) cached(size, align int) bool {
	return a.cache != nil && size >= 0 && size <= a.cache.MaxObjectSize() && align <= slab.SlotAlign
}

// Allocate returns size bytes aligned to align.
func (a *Allocator) Allocate(size, align int) ([]byte, error) {
	if a.cached(size, align) {
		a.mu.Lock()
		p, err := a.cache.Allocate(size, align)
		a.mu.Unlock()
		if err != nil {
			a.failures.Inc()
			return nil, err
		}
		a.cacheAllocs.Inc()
		return p, nil
	}

	p, err := a.fallback.Reserve(size, align)
	if err != nil {
		a.failures.Inc()
		return nil, errors.Wrapf(err, "global: fallback for %d bytes at %d", size, align)
	}
	a.fallbackAllocs.Inc()
	return p, nil
}

// Release returns p. size and align must be the values p was allocated with.
// A release the fallback provider rejects is logged and otherwise dropped.
func (a *Allocator) Release(p []byte, size, align int) {
	a.releases.Inc()
	if a.cached(size, align) {
		a.mu.Lock()
		a.cache.Deallocate(p, size, align)
		a.mu.Unlock()
		return
	}
	if err := a.fallback.Release(p, size, align); err != nil {
		logger.Warn("global: fallback release failed", "size", size, "align", align, "err", err)
	}
}

// Passthrough reports whether the cache is bypassed.
func (a *Allocator) Passthrough() bool { return a.cache == nil }

// Stats returns a snapshot of the counters.
func (a *Allocator) Stats() Stats {
	return Stats{
		CacheAllocs:    a.cacheAllocs.Load(),
		FallbackAllocs: a.fallbackAllocs.Load(),
		Failures:       a.failures.Load(),
		Releases:       a.releases.Load(),
	}
}

// CacheStats returns the cache snapshot, or false in passthrough mode.
func (a *Allocator) CacheStats() (slab.CacheStats, bool) {
	if a.cache == nil {
		return slab.CacheStats{}, false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cache.Stats(), true
}

// Verify checks the cache's free lists.
func (a *Allocator) Verify() error {
	if a.cache == nil {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cache.Verify()
}

// Close releases the cache's blocks. Memory handed out by the cache must not
// be used afterwards.
func (a *Allocator) Close() error {
	if a.cache == nil {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cache.Close()
}

var (
	defaultOnce sync.Once
	defaultA    *Allocator
	defaultErr  error
)

// Default returns the process-wide adapter, building it on first use with
// slab.DefaultConfig.
func Default() (*Allocator, error) {
	defaultOnce.Do(func() {
		defaultA, defaultErr = New(Options{})
	})
	return defaultA, defaultErr
}

// Allocate allocates from the process-wide adapter.
func Allocate(size, align int) ([]byte, error) {
	a, err := Default()
	if err != nil {
		return nil, err
	}
	return a.Allocate(size, align)
}

// Release releases to the process-wide adapter.
func Release(p []byte, size, align int) {
	a, err := Default()
	if err != nil {
		return
	}
	a.Release(p, size, align)
}
