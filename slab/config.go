package slab

import (
	"github.com/pkg/errors"

	"github.com/joshuapare/slabkit/internal/buf"
	"github.com/joshuapare/slabkit/rawmem"
)

// Config describes the geometry shared by slabs, allocators and caches.
type Config struct {
	// Name for this configuration (shown in stats output)
	Name string

	// BlockSize is the size of the raw block backing each slab. Must be a
	// positive multiple of SlotAlign.
	BlockSize int

	// MaxObjectSize is the largest object size a slab accepts.
	MaxObjectSize int

	// MaxSlabs caps how many slabs one Allocator may create.
	MaxSlabs int

	// Classes are the object sizes of a Cache's size classes, strictly
	// ascending, each in [1, MaxObjectSize].
	Classes []int

	// Provider supplies raw blocks. Nil means rawmem.Default().
	Provider rawmem.Provider
}

// Predefined configurations.
var (
	// DefaultConfig: 4KB blocks, up to 16 slabs per class, three classes.
	DefaultConfig = Config{
		Name:          "Default",
		BlockSize:     4096,
		MaxObjectSize: 512,
		MaxSlabs:      16,
		Classes:       []int{64, 256, 512},
	}

	// ConfigPowersOfTwo: one class per power of two from 16 to 512 bytes.
	// Less internal fragmentation for mixed small sizes, more slabs overall.
	ConfigPowersOfTwo = Config{
		Name:          "PowersOfTwo",
		BlockSize:     4096,
		MaxObjectSize: 512,
		MaxSlabs:      16,
		Classes:       []int{16, 32, 64, 128, 256, 512},
	}
)

// Validate reports whether the configuration is usable.
func (c Config) Validate() error {
	if c.BlockSize <= 0 || c.BlockSize%SlotAlign != 0 {
		return errors.Wrapf(ErrInvalidConfig, "block size %d is not a positive multiple of %d", c.BlockSize, SlotAlign)
	}
	if c.MaxObjectSize <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "max object size %d", c.MaxObjectSize)
	}
	if c.MaxSlabs <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "max slabs %d", c.MaxSlabs)
	}
	if _, ok := buf.MulOverflowSafe(c.BlockSize, c.MaxSlabs); !ok {
		return errors.Wrapf(ErrInvalidConfig, "%d slabs of %d bytes overflow", c.MaxSlabs, c.BlockSize)
	}
	if len(c.Classes) == 0 {
		return errors.Wrap(ErrInvalidConfig, "no size classes")
	}
	prev := 0
	for _, size := range c.Classes {
		if size <= prev {
			return errors.Wrapf(ErrInvalidConfig, "size classes must be strictly ascending and positive: %v", c.Classes)
		}
		if size > c.MaxObjectSize {
			return errors.Wrapf(ErrInvalidConfig, "size class %d exceeds max object size %d", size, c.MaxObjectSize)
		}
		prev = size
	}
	return nil
}

// resolveConfig validates cfg and fills in defaults. A nil cfg means DefaultConfig.
// The returned Config owns its Classes slice.
func resolveConfig(cfg *Config) (Config, error) {
	c := DefaultConfig
	if cfg != nil {
		c = *cfg
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	c.Classes = append([]int(nil), c.Classes...)
	if c.Provider == nil {
		c.Provider = rawmem.Default()
	}
	return c, nil
}
