package rawmem

import "go.uber.org/atomic"

// Counting wraps a Provider and keeps running totals of what it handed out.
// The counters are safe to read from any goroutine.
type Counting struct {
	inner Provider

	reserves  atomic.Int64
	releases  atomic.Int64
	failures  atomic.Int64
	liveBytes atomic.Int64
}

// CountingStats is a point-in-time copy of the counters.
type CountingStats struct {
	Reserves  int64 // successful Reserve calls
	Releases  int64 // successful Release calls
	Failures  int64 // failed Reserve or Release calls
	LiveBytes int64 // bytes reserved and not yet released
}

// NewCounting wraps inner. A nil inner uses Default().
func NewCounting(inner Provider) *Counting {
	if inner == nil {
		inner = Default()
	}
	return &Counting{inner: inner}
}

// Reserve forwards to the wrapped provider.
func (c *Counting) Reserve(size, align int) ([]byte, error) {
	block, err := c.inner.Reserve(size, align)
	if err != nil {
		c.failures.Inc()
		return nil, err
	}
	c.reserves.Inc()
	c.liveBytes.Add(int64(size))
	return block, nil
}

// Release forwards to the wrapped provider.
func (c *Counting) Release(block []byte, size, align int) error {
	if err := c.inner.Release(block, size, align); err != nil {
		c.failures.Inc()
		return err
	}
	c.releases.Inc()
	c.liveBytes.Sub(int64(size))
	return nil
}

// Live returns the number of blocks reserved and not yet released.
func (c *Counting) Live() int64 {
	return c.reserves.Load() - c.releases.Load()
}

// Stats returns a snapshot of the counters.
func (c *Counting) Stats() CountingStats {
	return CountingStats{
		Reserves:  c.reserves.Load(),
		Releases:  c.releases.Load(),
		Failures:  c.failures.Load(),
		LiveBytes: c.liveBytes.Load(),
	}
}
