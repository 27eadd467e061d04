//go:build !unix

package rawmem

// Default returns the platform provider. Without mmap the Go heap is used.
func Default() Provider { return NewHeap() }
