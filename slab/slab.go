package slab

import (
	"unsafe"

	"github.com/pkg/errors"

	"github.com/joshuapare/slabkit/internal/buf"
	"github.com/joshuapare/slabkit/rawmem"
)

const (
	// freeNodeSize is the size of the link a free slot stores in its first bytes.
	freeNodeSize = 8

	// freeNodeAlign is the alignment of that link.
	freeNodeAlign = 8

	// SlotAlign is the alignment of every slot: max(8, freeNodeAlign).
	SlotAlign = max(8, freeNodeAlign)

	// endOfList terminates the free list.
	endOfList = ^uint64(0)
)

// Slab carves one raw block into equal slots and hands them out through an
// intrusive free list. While a slot is free its first 8 bytes hold the index
// of the next free slot; while allocated the caller owns all of its bytes.
//
// A Slab is not safe for concurrent use.
type Slab struct {
	provider  rawmem.Provider
	block     []byte // exactly as returned by the provider, needed for Release
	base      uintptr
	blockSize int

	objectSize int // slot size after rounding
	capacity   int
	allocated  int
	head       uint64 // index of the first free slot, or endOfList
}

// SlotSize returns the slot size used for a requested object size: the size is
// raised to hold a free-list link and rounded up to SlotAlign.
func SlotSize(requested int) int {
	size, ok := buf.RoundUp(max(requested, freeNodeSize), SlotAlign)
	if !ok {
		return 0
	}
	return size
}

// NewSlab reserves one block and threads every slot onto the free list.
// A nil cfg uses DefaultConfig.
func NewSlab(objectSize int, cfg *Config) (*Slab, error) {
	c, err := resolveConfig(cfg)
	if err != nil {
		return nil, err
	}
	return newSlab(objectSize, &c)
}

// slabGeometry validates objectSize against c and returns the slot size and capacity.
func slabGeometry(objectSize int, c *Config) (int, int, error) {
	if objectSize <= 0 || objectSize > c.MaxObjectSize {
		return 0, 0, errors.Wrapf(ErrInvalidSize, "object size %d outside (0, %d]", objectSize, c.MaxObjectSize)
	}
	slotSize := SlotSize(objectSize)
	capacity := c.BlockSize / slotSize
	if capacity == 0 {
		return 0, 0, errors.Wrapf(ErrInvalidSize, "slot of %d bytes does not fit a %d-byte block", slotSize, c.BlockSize)
	}
	return slotSize, capacity, nil
}

func newSlab(objectSize int, c *Config) (*Slab, error) {
	slotSize, capacity, err := slabGeometry(objectSize, c)
	if err != nil {
		return nil, err
	}

	block, err := c.Provider.Reserve(c.BlockSize, rawmem.PointerAlign)
	if err != nil {
		return nil, errors.Wrapf(err, "slab: reserve %d-byte block", c.BlockSize)
	}

	s := &Slab{
		provider:   c.Provider,
		block:      block,
		base:       uintptr(unsafe.Pointer(unsafe.SliceData(block))),
		blockSize:  c.BlockSize,
		objectSize: slotSize,
		capacity:   capacity,
	}
	s.initFreeList()
	return s, nil
}

// initFreeList links slots from the last to the first so the head ends at
// slot 0 and a fresh slab hands out slots in ascending address order.
func (s *Slab) initFreeList() {
	next := endOfList
	for i := s.capacity - 1; i >= 0; i-- {
		s.setLink(i, next)
		next = uint64(i)
	}
	s.head = next
}

func (s *Slab) link(idx int) uint64 {
	return buf.U64LE(s.block[idx*s.objectSize:])
}

func (s *Slab) setLink(idx int, next uint64) {
	buf.PutU64LE(s.block[idx*s.objectSize:], next)
}

// Allocate pops the head of the free list. The returned slice covers the
// whole slot (length and capacity equal ObjectSize).
func (s *Slab) Allocate() ([]byte, error) {
	if s.block == nil {
		return nil, ErrClosed
	}
	if s.head == endOfList {
		return nil, ErrSlabFull
	}
	if s.head >= uint64(s.capacity) {
		return nil, errors.Wrapf(ErrCorrupt, "free list head %d beyond capacity %d", s.head, s.capacity)
	}

	idx := int(s.head)
	s.head = s.link(idx)
	s.allocated++

	slot, _ := buf.Slice(s.block, idx*s.objectSize, s.objectSize)
	return slot, nil
}

// Deallocate pushes the slot containing p back onto the free list, so the
// most recently freed slot is the next one allocated.
//
// p must have come from this slab's Allocate and must not have been
// deallocated since. A double free corrupts the free list without being
// detected here (see Verify). A p outside the block is ignored.
func (s *Slab) Deallocate(p []byte) {
	addr, ok := addrOf(p)
	if !ok || !s.ContainsAddr(addr) {
		return
	}
	idx := int(addr-s.base) / s.objectSize
	s.setLink(idx, s.head)
	s.head = uint64(idx)
	if s.allocated > 0 {
		s.allocated--
	}
}

// IsFull reports whether every slot is allocated.
func (s *Slab) IsFull() bool { return s.allocated == s.capacity }

// IsEmpty reports whether no slot is allocated.
func (s *Slab) IsEmpty() bool { return s.allocated == 0 }

// Contains reports whether p starts inside this slab's block. The test is a
// range check only; it does not require p to start on a slot boundary.
func (s *Slab) Contains(p []byte) bool {
	addr, ok := addrOf(p)
	return ok && s.ContainsAddr(addr)
}

// ContainsAddr reports whether addr lies in [base, base+BlockSize).
func (s *Slab) ContainsAddr(addr uintptr) bool {
	if s.block == nil {
		return false
	}
	return addr >= s.base && addr-s.base < uintptr(s.blockSize)
}

// ObjectSize returns the slot size.
func (s *Slab) ObjectSize() int { return s.objectSize }

// Capacity returns the number of slots.
func (s *Slab) Capacity() int { return s.capacity }

// Allocated returns the number of slots currently handed out.
func (s *Slab) Allocated() int { return s.allocated }

// Base returns the address of the first slot.
func (s *Slab) Base() uintptr { return s.base }

// Close returns the block to the provider with the size and alignment it was
// reserved with. Slots handed out by this slab must not be used afterwards.
func (s *Slab) Close() error {
	if s.block == nil {
		return nil
	}
	block := s.block
	s.block = nil
	s.base = 0
	s.head = endOfList
	if err := s.provider.Release(block, s.blockSize, rawmem.PointerAlign); err != nil {
		return errors.Wrapf(err, "slab: release %d-byte block", s.blockSize)
	}
	return nil
}

// Addr returns the address of the first byte of p, or 0 for a slice with no
// backing array.
func Addr(p []byte) uintptr {
	addr, _ := addrOf(p)
	return addr
}

func addrOf(p []byte) (uintptr, bool) {
	if cap(p) == 0 {
		return 0, false
	}
	return uintptr(unsafe.Pointer(&p[:1][0])), true
}
