//go:build unix

package main

import "github.com/joshuapare/slabkit/rawmem"

func newMmapProvider() (*rawmem.Counting, error) {
	return rawmem.NewCounting(rawmem.NewMmap()), nil
}
