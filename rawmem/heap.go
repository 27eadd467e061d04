package rawmem

import (
	"unsafe"

	"github.com/pkg/errors"

	"github.com/joshuapare/slabkit/internal/buf"
)

// Heap reserves blocks from the Go heap. Blocks are over-allocated by align
// bytes and shifted to the requested alignment. Release is a no-op beyond
// validation; the garbage collector reclaims the block once it is unreferenced.
type Heap struct{}

// NewHeap returns a Go heap provider.
func NewHeap() *Heap { return &Heap{} }

// Reserve returns a zeroed block of size bytes aligned to align.
func (h *Heap) Reserve(size, align int) ([]byte, error) {
	if err := checkRequest(size, align); err != nil {
		return nil, err
	}
	total, ok := buf.AddOverflowSafe(size, align)
	if !ok {
		return nil, errors.Wrapf(ErrBadSize, "size %d with alignment %d overflows", size, align)
	}
	raw := make([]byte, total)
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(raw)))
	shift := int((uintptr(align) - addr%uintptr(align)) % uintptr(align))
	return raw[shift : shift+size : shift+size], nil
}

// Release validates the block description.
func (h *Heap) Release(block []byte, size, align int) error {
	return checkRelease(block, size, align)
}
