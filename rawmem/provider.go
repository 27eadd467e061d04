// Package rawmem is the boundary between slabkit and whatever hands out raw
// blocks of memory. A Provider reserves a block of N bytes at alignment A and
// later takes back exactly that block, described by the same N and A.
package rawmem

import (
	"github.com/pkg/errors"

	"github.com/joshuapare/slabkit/internal/buf"
)

var (
	// ErrBadSize indicates a non-positive size, or a release whose size does not match the block.
	ErrBadSize = errors.New("rawmem: bad block size")

	// ErrBadAlign indicates an alignment that is not a power of two or that the provider cannot honor.
	ErrBadAlign = errors.New("rawmem: bad alignment")
)

// Provider reserves and releases raw blocks.
//
// Release must be called with the slice returned by Reserve (not a re-slice of
// it) and the same size and alignment that were passed to Reserve.
type Provider interface {
	Reserve(size, align int) ([]byte, error)
	Release(block []byte, size, align int) error
}

// PointerAlign is the alignment slabkit requests for its blocks.
const PointerAlign = 8

// checkRequest validates the size/alignment pair common to every provider.
func checkRequest(size, align int) error {
	if size <= 0 {
		return errors.Wrapf(ErrBadSize, "size %d", size)
	}
	if !buf.IsPow2(align) {
		return errors.Wrapf(ErrBadAlign, "alignment %d is not a power of two", align)
	}
	return nil
}

// checkRelease validates that block matches the description it is released with.
func checkRelease(block []byte, size, align int) error {
	if err := checkRequest(size, align); err != nil {
		return err
	}
	if len(block) != size {
		return errors.Wrapf(ErrBadSize, "release of %d-byte block described as %d bytes", len(block), size)
	}
	return nil
}
