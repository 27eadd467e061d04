package slab

// sizeClassTable holds the size class boundaries of a Cache.
type sizeClassTable struct {
	name       string
	boundaries []int // Object size (inclusive upper bound) of each class
	numClasses int
}

// newSizeClassTable builds the table from an already validated config.
func newSizeClassTable(config Config) *sizeClassTable {
	return &sizeClassTable{
		name:       config.Name,
		boundaries: append([]int(nil), config.Classes...),
		numClasses: len(config.Classes),
	}
}

// getSizeClass returns the index of the smallest class that fits size.
// Returns table.numClasses for sizes above the largest class.
func (t *sizeClassTable) getSizeClass(size int) int {
	lo, hi := 0, t.numClasses-1

	for lo <= hi {
		mid := (lo + hi) / 2
		if size <= t.boundaries[mid] {
			if mid == 0 || size > t.boundaries[mid-1] {
				return mid
			}
			hi = mid - 1
		} else {
			lo = mid + 1
		}
	}

	return t.numClasses
}

// boundary returns the object size of class sc.
func (t *sizeClassTable) boundary(sc int) int {
	return t.boundaries[sc]
}

// String returns the configuration name.
func (t *sizeClassTable) String() string {
	return t.name
}

// NumClasses returns the number of size classes.
func (t *sizeClassTable) NumClasses() int {
	return t.numClasses
}
