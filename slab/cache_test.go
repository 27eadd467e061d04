package slab

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := NewCache(nil)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, c.Close()) })
	return c
}

func Test_Cache_Routing(t *testing.T) {
	cases := []struct {
		size  int
		class int
	}{
		{32, 64},
		{128, 256},
		{400, 512},
	}
	for _, tc := range cases {
		c := newTestCache(t)
		p, err := c.Allocate(tc.size, 8)
		require.NoError(t, err, "size %d", tc.size)
		require.Len(t, p, tc.size)
		require.Equal(t, tc.class, cap(p), "capacity is the whole slot")

		pool := c.Pool(tc.size)
		require.Equal(t, tc.class, pool.ObjectSize())
		require.Equal(t, 1, pool.Allocated())
		require.True(t, pool.Contains(p))
	}
}

func Test_Cache_Oversized(t *testing.T) {
	c := newTestCache(t)
	_, err := c.Allocate(1024, 8)
	require.ErrorIs(t, err, ErrTooLarge)

	_, err = c.Allocate(513, 8)
	require.ErrorIs(t, err, ErrTooLarge)

	_, err = c.Allocate(-1, 8)
	require.ErrorIs(t, err, ErrInvalidSize)
}

func Test_Cache_RoundTrip(t *testing.T) {
	c := newTestCache(t)
	for _, size := range []int{32, 128, 400} {
		p, err := c.Allocate(size, 8)
		require.NoError(t, err)
		c.Deallocate(p, size, 8)

		q, err := c.Allocate(size, 8)
		require.NoError(t, err)
		require.Equal(t, Addr(p), Addr(q), "size %d", size)
		c.Deallocate(q, size, 8)
	}
	require.NoError(t, c.Verify())
}

func Test_Cache_ClassBoundaries(t *testing.T) {
	c := newTestCache(t)
	cases := map[int]int{0: 64, 1: 64, 64: 64, 65: 256, 256: 256, 257: 512, 512: 512}
	for size, want := range cases {
		got, ok := c.ClassFor(size)
		assert.True(t, ok, "size %d", size)
		assert.Equal(t, want, got, "size %d", size)
	}
	_, ok := c.ClassFor(513)
	assert.False(t, ok)
	_, ok = c.ClassFor(-1)
	assert.False(t, ok)
	assert.Nil(t, c.Pool(513))

	assert.Equal(t, []int{64, 256, 512}, c.Classes())
	assert.Equal(t, 512, c.MaxObjectSize())
}

func Test_Cache_ZeroSize(t *testing.T) {
	c := newTestCache(t)
	p, err := c.Allocate(0, 1)
	require.NoError(t, err)
	require.Empty(t, p)
	require.Equal(t, 64, cap(p))
	require.NotZero(t, Addr(p))

	c.Deallocate(p, 0, 1)
	require.Zero(t, c.Pool(0).Allocated())
}

func Test_Cache_MismatchedSizeIsNotDetected(t *testing.T) {
	c := newTestCache(t)
	p, err := c.Allocate(32, 8)
	require.NoError(t, err)

	// 400 maps to the 512 class, which never saw p.
	c.Deallocate(p, 400, 8)
	require.Equal(t, 1, c.Pool(32).Allocated())
	require.Equal(t, 1, c.Pool(400).Stats().StrayFrees)

	c.Deallocate(p, 2048, 8)
	require.Equal(t, 1, c.Pool(32).Allocated())
}

func Test_Cache_EveryAddressAligned(t *testing.T) {
	c := newTestCache(t)
	for size := 1; size <= 512; size += 7 {
		p, err := c.Allocate(size, 8)
		require.NoError(t, err, "size %d", size)
		require.Zero(t, Addr(p)%8, "size %d", size)
	}
	require.NoError(t, c.Verify())
}

func Test_Cache_ClassesAreIndependent(t *testing.T) {
	c := newTestCache(t)
	small, err := c.Allocate(16, 8)
	require.NoError(t, err)
	large, err := c.Allocate(300, 8)
	require.NoError(t, err)

	require.False(t, c.Pool(300).Contains(small))
	require.False(t, c.Pool(16).Contains(large))
	require.Zero(t, c.Pool(200).NumSlabs())
}

func Test_Cache_PowersOfTwo(t *testing.T) {
	c, err := NewCache(&ConfigPowersOfTwo)
	require.NoError(t, err)
	defer c.Close()

	got, ok := c.ClassFor(20)
	require.True(t, ok)
	require.Equal(t, 32, got)

	p, err := c.Allocate(100, 8)
	require.NoError(t, err)
	require.Equal(t, 128, cap(p))
	require.Equal(t, "PowersOfTwo", c.Stats().Config)
}

func Test_Cache_Stats(t *testing.T) {
	c := newTestCache(t)
	for i := 0; i < 100; i++ {
		_, err := c.Allocate(32, 8)
		require.NoError(t, err)
	}
	_, err := c.Allocate(200, 8)
	require.NoError(t, err)

	st := c.Stats()
	require.Equal(t, c.ID(), st.ID)
	require.Len(t, st.Classes, 3)
	require.Equal(t, 2, st.Classes[0].Slabs)
	require.Equal(t, 100, st.Classes[0].Allocated)
	require.Equal(t, 128, st.Classes[0].Capacity)
	require.Equal(t, 1, st.Classes[1].Slabs)
	require.Zero(t, st.Classes[2].Slabs)
	require.Equal(t, 3*4096, st.ReservedBytes)

	var out bytes.Buffer
	require.NoError(t, c.WriteStats(&out))
	require.Contains(t, out.String(), c.ID())
	require.Contains(t, out.String(), "reserved: 12,288 bytes")
	require.Contains(t, out.String(), "2/16")
}

func Test_Cache_VerifyReportsClass(t *testing.T) {
	c := newTestCache(t)
	p, err := c.Allocate(200, 8)
	require.NoError(t, err)
	c.Deallocate(p, 200, 8)
	c.Deallocate(p, 200, 8)

	err = c.Verify()
	require.ErrorIs(t, err, ErrCorrupt)
	require.Contains(t, err.Error(), "size class 256")
}

func Test_Cache_CloseReleasesEveryBlock(t *testing.T) {
	cfg, counter := countingConfig(t)
	c, err := NewCache(cfg)
	require.NoError(t, err)

	for _, size := range []int{8, 100, 500, 500} {
		_, err := c.Allocate(size, 8)
		require.NoError(t, err)
	}
	require.Equal(t, int64(3), counter.Live())

	require.NoError(t, c.Close())
	require.Zero(t, counter.Live())

	_, err = c.Allocate(8, 8)
	require.ErrorIs(t, err, ErrClosed)
}

func Test_Cache_UniqueIDs(t *testing.T) {
	a := newTestCache(t)
	b := newTestCache(t)
	require.NotEmpty(t, a.ID())
	require.NotEqual(t, a.ID(), b.ID())
}

func Test_Cache_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig
	cfg.Classes = []int{256, 64}
	_, err := NewCache(&cfg)
	require.ErrorIs(t, err, ErrInvalidConfig)
}
