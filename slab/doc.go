// Package slab provides fixed-size object allocation over pre-reserved blocks.
//
// # Overview
//
// Small, uniform requests are served from 4KB blocks carved into equal slots.
// Free slots are chained through an intrusive free list: while a slot is free
// its first 8 bytes hold the index of the next free slot, so no bookkeeping
// lives outside the block. Once a block is reserved, allocation and release
// never call back into the raw memory provider.
//
// # Components
//
// Slab: one block, one slot size
//
//   - Allocate pops the free-list head in O(1)
//   - Deallocate pushes onto the head (last freed, first reused)
//   - A fresh slab hands out slots in ascending address order
//
// Allocator: up to MaxSlabs slabs sharing one object size
//
//   - First fit across existing slabs, in creation order
//   - A new slab is created only when all existing slabs are full
//   - Slabs are never released while the Allocator lives
//
// Cache: one Allocator per size class
//
//   - Routes each request to the smallest class that fits
//   - Refuses anything above the largest class (ErrTooLarge)
//
// # Usage Example
//
//	cache, err := slab.NewCache(nil)
//	if err != nil {
//	    return err
//	}
//	defer cache.Close()
//
//	obj, err := cache.Allocate(48, 8)
//	if err != nil {
//	    return err
//	}
//	copy(obj, payload)
//
//	// Free with a size in the same class as the allocation.
//	cache.Deallocate(obj, 48, 8)
//
// # Size Classes
//
// DefaultConfig uses three classes:
//
//	Class 0:    1 -  64 bytes
//	Class 1:   65 - 256 bytes
//	Class 2:  257 - 512 bytes
//
// Each slot is rounded up to a multiple of 8 and to at least 8 bytes, so
// every address handed out is 8-byte aligned. A 4KB block holds 64, 16 and 8
// slots for the three classes respectively.
//
// # Caller Obligations
//
// Release is not checked. Freeing a slot twice, freeing memory that did not
// come from the allocator, or freeing with a size from a different class
// corrupts the free list or is silently ignored. Verify walks the free lists
// and reports ErrCorrupt when they no longer add up.
//
// # Thread Safety
//
// Slab, Allocator and Cache are not thread-safe. Callers must serialize
// access externally, for example with one mutex around a Cache as the global
// package does.
//
// # Debug Logging
//
// Set SLAB_LOG_ALLOC to log slab creation and pool exhaustion to stderr.
package slab
