package slab

import (
	"github.com/pkg/errors"
	"github.com/willf/bitset"
)

// Verify walks the free list and checks it against the slab's accounting.
// It reports ErrCorrupt for a link past the last slot, a slot linked twice
// (a cycle, usually from a double free) or a free count that disagrees with
// Allocated. The walk is bounded by Capacity.
func (s *Slab) Verify() error {
	if s.block == nil {
		return ErrClosed
	}

	seen := bitset.New(uint(s.capacity))
	free := 0
	for idx := s.head; idx != endOfList; idx = s.link(int(idx)) {
		if idx >= uint64(s.capacity) {
			return errors.Wrapf(ErrCorrupt, "link to slot %d, capacity %d", idx, s.capacity)
		}
		if seen.Test(uint(idx)) {
			return errors.Wrapf(ErrCorrupt, "slot %d linked twice", idx)
		}
		seen.Set(uint(idx))
		free++
	}

	if want := s.capacity - s.allocated; free != want {
		return errors.Wrapf(ErrCorrupt, "%d free slots linked, %d expected", free, want)
	}
	return nil
}

// FreeSlots returns the number of slots on the free list as counted by the
// slab's accounting.
func (s *Slab) FreeSlots() int { return s.capacity - s.allocated }

// Verify checks every slab of the pool.
func (a *Allocator) Verify() error {
	if a.closed {
		return ErrClosed
	}
	for i, s := range a.slabs {
		if s.ObjectSize() != a.slotSize {
			return errors.Wrapf(ErrCorrupt, "slab %d has %d-byte slots, pool uses %d", i, s.ObjectSize(), a.slotSize)
		}
		if err := s.Verify(); err != nil {
			return errors.Wrapf(err, "slab %d", i)
		}
	}
	return nil
}

// Verify checks every class of the cache.
func (c *Cache) Verify() error {
	for sc, pool := range c.pools {
		if err := pool.Verify(); err != nil {
			return errors.Wrapf(err, "size class %d", c.table.boundary(sc))
		}
	}
	return nil
}
