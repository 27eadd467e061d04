//go:build !unix

package main

import (
	"errors"

	"github.com/joshuapare/slabkit/rawmem"
)

func newMmapProvider() (*rawmem.Counting, error) {
	return nil, errors.New("mmap provider is only available on unix")
}
