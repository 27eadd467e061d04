package slab

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Allocator_Basic(t *testing.T) {
	a, err := NewAllocator(64, nil)
	require.NoError(t, err)
	defer a.Close()

	slot, err := a.Allocate()
	require.NoError(t, err)
	require.Len(t, slot, 64)
	require.Equal(t, 1, a.NumSlabs())
	require.Equal(t, 1, a.Allocated())

	a.Deallocate(slot)
	require.Zero(t, a.Allocated())
}

func Test_Allocator_LazyGrowth(t *testing.T) {
	cfg, counter := countingConfig(t)
	a, err := NewAllocator(64, cfg)
	require.NoError(t, err)
	defer a.Close()

	require.Zero(t, a.NumSlabs())
	require.Zero(t, counter.Stats().Reserves, "no block is reserved before the first request")
	require.Equal(t, 16, a.MaxSlabs())
	require.Equal(t, 16*64, a.MaxCapacity())
}

func Test_Allocator_MultipleSlabs(t *testing.T) {
	a, err := NewAllocator(64, nil)
	require.NoError(t, err)
	defer a.Close()

	var slots [][]byte
	for i := 0; i < 200; i++ {
		slot, err := a.Allocate()
		if err == nil {
			slots = append(slots, slot)
		}
	}
	require.GreaterOrEqual(t, len(slots), 100)
	require.Len(t, slots, 200)
	require.Equal(t, 4, a.NumSlabs())

	for _, slot := range slots {
		a.Deallocate(slot)
	}
	require.Zero(t, a.Allocated())
	require.Equal(t, 4, a.NumSlabs(), "empty slabs are kept")
	require.Zero(t, a.Stats().StrayFrees)
	require.NoError(t, a.Verify())
}

func Test_Allocator_FirstFit(t *testing.T) {
	a, err := NewAllocator(512, nil)
	require.NoError(t, err)
	defer a.Close()

	perSlab := a.MaxCapacity() / a.MaxSlabs()
	var first [][]byte
	for i := 0; i < perSlab; i++ {
		slot, err := a.Allocate()
		require.NoError(t, err)
		first = append(first, slot)
	}
	require.Equal(t, 1, a.NumSlabs())

	spill, err := a.Allocate()
	require.NoError(t, err)
	require.Equal(t, 2, a.NumSlabs())
	require.False(t, a.slabs[0].Contains(spill))

	a.Deallocate(first[2])
	again, err := a.Allocate()
	require.NoError(t, err)
	require.Equal(t, Addr(first[2]), Addr(again), "the first slab with room serves the request")
	require.Equal(t, 2, a.NumSlabs())
}

func Test_Allocator_Exhausted(t *testing.T) {
	cfg := DefaultConfig
	cfg.MaxSlabs = 2
	a, err := NewAllocator(512, &cfg)
	require.NoError(t, err)
	defer a.Close()

	var slots [][]byte
	for i := 0; i < 16; i++ {
		slot, err := a.Allocate()
		require.NoError(t, err, "allocation %d", i)
		slots = append(slots, slot)
	}

	_, err = a.Allocate()
	require.ErrorIs(t, err, ErrExhausted)
	require.Equal(t, 2, a.NumSlabs())

	a.Deallocate(slots[9])
	slot, err := a.Allocate()
	require.NoError(t, err)
	require.Equal(t, Addr(slots[9]), Addr(slot))

	st := a.Stats()
	require.Equal(t, 18, st.AllocCalls)
	require.Equal(t, 1, st.AllocFailures)
	require.Equal(t, 16, st.Capacity)
	require.Equal(t, 16, st.Allocated)
	require.Equal(t, 2*4096, st.ReservedBytes)
}

func Test_Allocator_StrayFreeIgnored(t *testing.T) {
	a, err := NewAllocator(64, nil)
	require.NoError(t, err)
	defer a.Close()

	slot, err := a.Allocate()
	require.NoError(t, err)

	a.Deallocate(make([]byte, 64))
	require.Equal(t, 1, a.Allocated())
	require.Equal(t, 1, a.Stats().StrayFrees)
	require.True(t, a.Contains(slot))
	require.NoError(t, a.Verify())
}

func Test_Allocator_InvalidSize(t *testing.T) {
	for _, size := range []int{0, -8, 513} {
		_, err := NewAllocator(size, nil)
		require.ErrorIs(t, err, ErrInvalidSize, "size %d", size)
	}
}

func Test_Allocator_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig
	cfg.MaxSlabs = 0
	_, err := NewAllocator(64, &cfg)
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func Test_Allocator_ReserveFailurePropagates(t *testing.T) {
	cfg := DefaultConfig
	cfg.Provider = failingProvider{}
	a, err := NewAllocator(64, &cfg)
	require.NoError(t, err)

	_, err = a.Allocate()
	require.ErrorIs(t, err, errReserve)
	require.Zero(t, a.NumSlabs())
	require.Equal(t, 1, a.Stats().AllocFailures)
}

func Test_Allocator_CloseReleasesEveryBlock(t *testing.T) {
	cfg, counter := countingConfig(t)
	a, err := NewAllocator(256, cfg)
	require.NoError(t, err)

	for i := 0; i < 40; i++ {
		_, err := a.Allocate()
		require.NoError(t, err)
	}
	require.Equal(t, int64(3), counter.Live())

	require.NoError(t, a.Close())
	require.Zero(t, counter.Live())
	require.Zero(t, counter.Stats().LiveBytes)

	_, err = a.Allocate()
	require.ErrorIs(t, err, ErrClosed)
	require.ErrorIs(t, a.Verify(), ErrClosed)
}
