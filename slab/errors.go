package slab

import "github.com/pkg/errors"

var (
	// ErrInvalidSize indicates an object size of zero, a negative size, a size above
	// the configured maximum, or a size whose slot does not fit once in a block.
	ErrInvalidSize = errors.New("slab: invalid object size")

	// ErrSlabFull indicates that a single slab has no free slot left.
	ErrSlabFull = errors.New("slab: slab is full")

	// ErrExhausted indicates that every slab an Allocator may own exists and is full.
	ErrExhausted = errors.New("slab: all slabs are full")

	// ErrTooLarge indicates a request larger than the largest size class.
	ErrTooLarge = errors.New("slab: size exceeds largest size class")

	// ErrInvalidConfig indicates a Config that fails validation.
	ErrInvalidConfig = errors.New("slab: invalid config")

	// ErrCorrupt indicates a free list that no longer matches the slab's accounting,
	// typically after a double free.
	ErrCorrupt = errors.New("slab: free list corrupt")

	// ErrClosed indicates use of a slab, allocator or cache after Close.
	ErrClosed = errors.New("slab: closed")
)
