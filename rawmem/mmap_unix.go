//go:build unix

package rawmem

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/joshuapare/slabkit/internal/buf"
)

// Mmap reserves blocks as anonymous private mappings. Sizes are rounded up to
// whole pages, so every block is page aligned and alignments up to the page
// size are honored.
type Mmap struct {
	pageSize int
}

// NewMmap returns an mmap-backed provider.
func NewMmap() *Mmap {
	return &Mmap{pageSize: unix.Getpagesize()}
}

// PageSize returns the mapping granularity.
func (m *Mmap) PageSize() int { return m.pageSize }

// Reserve maps a zeroed block of at least size bytes. The returned slice has
// length size; its capacity covers the whole mapping.
func (m *Mmap) Reserve(size, align int) ([]byte, error) {
	if err := checkRequest(size, align); err != nil {
		return nil, err
	}
	if align > m.pageSize {
		return nil, errors.Wrapf(ErrBadAlign, "alignment %d exceeds page size %d", align, m.pageSize)
	}
	length, ok := buf.RoundUp(size, m.pageSize)
	if !ok {
		return nil, errors.Wrapf(ErrBadSize, "size %d overflows page rounding", size)
	}
	data, err := unix.Mmap(-1, 0, length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, errors.Wrapf(err, "rawmem: mmap %d bytes", length)
	}
	return data[:size], nil
}

// Release unmaps the block. The whole mapping is restored from the slice
// capacity, so block must be the slice Reserve returned.
func (m *Mmap) Release(block []byte, size, align int) error {
	if err := checkRelease(block, size, align); err != nil {
		return err
	}
	if err := unix.Munmap(block[:cap(block)]); err != nil {
		return errors.Wrapf(err, "rawmem: munmap %d bytes", cap(block))
	}
	return nil
}

// Default returns the platform provider: anonymous mappings on unix.
func Default() Provider { return NewMmap() }
