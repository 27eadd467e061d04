package slab

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Cache routes requests to one Allocator per size class. A request is served
// by the smallest class whose object size fits it; anything above the largest
// class is refused.
//
// The size passed to Deallocate must fall in the same class as the size passed
// to Allocate. The class is recomputed from that size alone, so a mismatch
// searches the wrong pool: the free is silently dropped, or worse, lands in an
// unrelated slab. Nothing here can detect it.
//
// A Cache is not safe for concurrent use.
type Cache struct {
	id    string
	cfg   Config
	table *sizeClassTable
	pools []*Allocator
}

// NewCache builds an empty cache. A nil cfg uses DefaultConfig (64, 256 and
// 512 byte classes).
func NewCache(cfg *Config) (*Cache, error) {
	c, err := resolveConfig(cfg)
	if err != nil {
		return nil, err
	}

	table := newSizeClassTable(c)
	pools := make([]*Allocator, table.NumClasses())
	for sc := range pools {
		pool, err := newAllocator(table.boundary(sc), c)
		if err != nil {
			return nil, errors.Wrapf(err, "size class %d", table.boundary(sc))
		}
		pools[sc] = pool
	}

	return &Cache{
		id:    uuid.NewString(),
		cfg:   c,
		table: table,
		pools: pools,
	}, nil
}

// Allocate returns a slice of length size from the matching size class. Its
// capacity is the whole slot. align is not checked: slots are aligned to
// SlotAlign and callers needing more must not use the cache.
func (c *Cache) Allocate(size, align int) ([]byte, error) {
	if size < 0 {
		return nil, errors.Wrapf(ErrInvalidSize, "size %d", size)
	}
	sc := c.table.getSizeClass(size)
	if sc == c.table.NumClasses() {
		return nil, errors.Wrapf(ErrTooLarge, "size %d, largest class %d", size, c.MaxObjectSize())
	}
	slot, err := c.pools[sc].Allocate()
	if err != nil {
		return nil, err
	}
	return slot[:size], nil
}

// Deallocate returns p to the size class derived from size. Sizes no class
// covers are ignored.
func (c *Cache) Deallocate(p []byte, size, align int) {
	if size < 0 {
		return
	}
	sc := c.table.getSizeClass(size)
	if sc == c.table.NumClasses() {
		return
	}
	c.pools[sc].Deallocate(p)
}

// ClassFor returns the object size of the class serving size, or false if no
// class fits.
func (c *Cache) ClassFor(size int) (int, bool) {
	if size < 0 {
		return 0, false
	}
	sc := c.table.getSizeClass(size)
	if sc == c.table.NumClasses() {
		return 0, false
	}
	return c.table.boundary(sc), true
}

// Classes returns the configured class sizes in ascending order.
func (c *Cache) Classes() []int {
	return append([]int(nil), c.table.boundaries...)
}

// MaxObjectSize returns the largest size the cache serves.
func (c *Cache) MaxObjectSize() int {
	return c.table.boundary(c.table.NumClasses() - 1)
}

// Pool returns the allocator behind the class serving size, or nil.
func (c *Cache) Pool(size int) *Allocator {
	if size < 0 {
		return nil
	}
	sc := c.table.getSizeClass(size)
	if sc == c.table.NumClasses() {
		return nil
	}
	return c.pools[sc]
}

// ID returns the random identifier of this cache instance.
func (c *Cache) ID() string { return c.id }

// Close releases every slab of every class and returns the first error.
func (c *Cache) Close() error {
	var firstErr error
	for _, pool := range c.pools {
		if err := pool.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
