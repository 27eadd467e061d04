package slab

import (
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// AllocatorStats is a snapshot of one pool.
type AllocatorStats struct {
	ObjectSize    int // Requested object size
	SlotSize      int // Slot size after rounding
	Slabs         int // Slabs created so far
	MaxSlabs      int // Slab ceiling
	Capacity      int // Slots across existing slabs
	Allocated     int // Slots handed out
	ReservedBytes int // Bytes of raw blocks held

	AllocCalls    int
	AllocFailures int
	FreeCalls     int
	StrayFrees    int
}

// CacheStats is a snapshot of a cache and its classes.
type CacheStats struct {
	ID            string
	Config        string
	Classes       []AllocatorStats
	ReservedBytes int
}

// Stats returns a snapshot of the pool.
func (a *Allocator) Stats() AllocatorStats {
	return AllocatorStats{
		ObjectSize:    a.objectSize,
		SlotSize:      a.slotSize,
		Slabs:         len(a.slabs),
		MaxSlabs:      a.cfg.MaxSlabs,
		Capacity:      a.Capacity(),
		Allocated:     a.Allocated(),
		ReservedBytes: len(a.slabs) * a.cfg.BlockSize,
		AllocCalls:    a.stats.AllocCalls,
		AllocFailures: a.stats.AllocFailures,
		FreeCalls:     a.stats.FreeCalls,
		StrayFrees:    a.stats.StrayFrees,
	}
}

// Stats returns a snapshot of every class.
func (c *Cache) Stats() CacheStats {
	st := CacheStats{
		ID:      c.id,
		Config:  c.table.String(),
		Classes: make([]AllocatorStats, len(c.pools)),
	}
	for i, pool := range c.pools {
		st.Classes[i] = pool.Stats()
		st.ReservedBytes += st.Classes[i].ReservedBytes
	}
	return st
}

// WriteStats prints a per-class table with grouped numbers.
func (c *Cache) WriteStats(w io.Writer) error {
	return c.Stats().Write(w)
}

// Write prints the snapshot as a table.
func (st CacheStats) Write(w io.Writer) error {
	p := message.NewPrinter(language.English)

	if _, err := p.Fprintf(w, "cache %s (%s)\n", st.ID, st.Config); err != nil {
		return err
	}
	if _, err := p.Fprintf(w, "%6s %6s %7s %9s %9s %9s %8s %9s %6s\n",
		"class", "slot", "slabs", "capacity", "in use", "allocs", "failed", "frees", "stray"); err != nil {
		return err
	}
	for _, cl := range st.Classes {
		slabs := p.Sprintf("%d/%d", cl.Slabs, cl.MaxSlabs)
		if _, err := p.Fprintf(w, "%6d %6d %7s %9d %9d %9d %8d %9d %6d\n",
			cl.ObjectSize, cl.SlotSize, slabs, cl.Capacity, cl.Allocated,
			cl.AllocCalls, cl.AllocFailures, cl.FreeCalls, cl.StrayFrees); err != nil {
			return err
		}
	}
	_, err := p.Fprintf(w, "reserved: %d bytes\n", st.ReservedBytes)
	return err
}
