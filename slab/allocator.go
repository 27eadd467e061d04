package slab

import (
	"os"

	"github.com/pkg/errors"

	"github.com/joshuapare/slabkit/internal/logger"
)

// Runtime debug flag for allocation logging - controlled by SLAB_LOG_ALLOC env var.
var logAlloc = os.Getenv(logger.EnvVar) != ""

// Allocator is a pool of slabs sharing one object size. Slabs are created on
// demand, up to Config.MaxSlabs, and are kept until the Allocator is closed
// even when they become empty.
//
// An Allocator is not safe for concurrent use.
type Allocator struct {
	cfg        Config
	objectSize int // requested size; slabs round it up to slotSize
	slotSize   int
	perSlab    int
	slabs      []*Slab
	closed     bool

	stats allocatorStats
}

// allocatorStats holds call counters.
type allocatorStats struct {
	AllocCalls    int // Total Allocate() calls
	AllocFailures int // Allocate() calls that returned an error
	FreeCalls     int // Total Deallocate() calls
	StrayFrees    int // Deallocate() calls no slab claimed
	SlabsCreated  int // Slabs created over the allocator's lifetime
}

// NewAllocator returns an empty pool for objectSize. No memory is reserved
// until the first Allocate. A nil cfg uses DefaultConfig.
func NewAllocator(objectSize int, cfg *Config) (*Allocator, error) {
	c, err := resolveConfig(cfg)
	if err != nil {
		return nil, err
	}
	return newAllocator(objectSize, c)
}

func newAllocator(objectSize int, c Config) (*Allocator, error) {
	slotSize, perSlab, err := slabGeometry(objectSize, &c)
	if err != nil {
		return nil, err
	}
	return &Allocator{
		cfg:        c,
		objectSize: objectSize,
		slotSize:   slotSize,
		perSlab:    perSlab,
		slabs:      make([]*Slab, 0, c.MaxSlabs),
	}, nil
}

// Allocate returns a free slot. Existing slabs are scanned in creation order
// and the first one with room serves the request (first fit). Only when every
// existing slab is full is a new slab created. ErrExhausted is returned once
// MaxSlabs slabs exist and all are full.
func (a *Allocator) Allocate() ([]byte, error) {
	a.stats.AllocCalls++
	if a.closed {
		a.stats.AllocFailures++
		return nil, ErrClosed
	}

	for _, s := range a.slabs {
		if !s.IsFull() {
			slot, err := s.Allocate()
			if err != nil {
				a.stats.AllocFailures++
			}
			return slot, err
		}
	}

	if len(a.slabs) >= a.cfg.MaxSlabs {
		a.stats.AllocFailures++
		if logAlloc {
			logger.Debug("slab pool exhausted", "object_size", a.objectSize, "slabs", len(a.slabs))
		}
		return nil, errors.Wrapf(ErrExhausted, "%d slabs of %d-byte objects", len(a.slabs), a.slotSize)
	}

	s, err := newSlab(a.objectSize, &a.cfg)
	if err != nil {
		a.stats.AllocFailures++
		return nil, err
	}
	a.slabs = append(a.slabs, s)
	a.stats.SlabsCreated++
	if logAlloc {
		logger.Debug("slab created",
			"object_size", a.objectSize,
			"slot_size", s.ObjectSize(),
			"capacity", s.Capacity(),
			"slabs", len(a.slabs),
		)
	}

	return s.Allocate()
}

// Deallocate returns p to the first slab whose block contains it. A pointer
// no slab claims is ignored.
func (a *Allocator) Deallocate(p []byte) {
	a.stats.FreeCalls++
	for _, s := range a.slabs {
		if s.Contains(p) {
			s.Deallocate(p)
			return
		}
	}
	a.stats.StrayFrees++
}

// Contains reports whether p lies inside one of the pool's slabs.
func (a *Allocator) Contains(p []byte) bool {
	for _, s := range a.slabs {
		if s.Contains(p) {
			return true
		}
	}
	return false
}

// ObjectSize returns the object size the pool was created for.
func (a *Allocator) ObjectSize() int { return a.objectSize }

// SlotSize returns the rounded slot size.
func (a *Allocator) SlotSize() int { return a.slotSize }

// NumSlabs returns how many slabs exist.
func (a *Allocator) NumSlabs() int { return len(a.slabs) }

// MaxSlabs returns the slab ceiling.
func (a *Allocator) MaxSlabs() int { return a.cfg.MaxSlabs }

// Capacity returns the number of slots across existing slabs.
func (a *Allocator) Capacity() int { return len(a.slabs) * a.perSlab }

// MaxCapacity returns the number of slots the pool can ever hold.
func (a *Allocator) MaxCapacity() int { return a.cfg.MaxSlabs * a.perSlab }

// Allocated returns the number of slots currently handed out.
func (a *Allocator) Allocated() int {
	n := 0
	for _, s := range a.slabs {
		n += s.Allocated()
	}
	return n
}

// Close releases every slab's block. The first release error is returned;
// the remaining slabs are still released.
func (a *Allocator) Close() error {
	var firstErr error
	for i, s := range a.slabs {
		err := s.Close()
		if err == nil {
			continue
		}
		logger.Error("slab release failed", "object_size", a.objectSize, "slab", i, "err", err)
		if firstErr == nil {
			firstErr = err
		}
	}
	a.slabs = nil
	a.closed = true
	return firstErr
}
