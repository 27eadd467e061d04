package slab

import (
	"testing"

	"github.com/pkg/errors"

	"github.com/joshuapare/slabkit/rawmem"
)

var errReserve = errors.New("test: reserve refused")

// failingProvider refuses every reservation.
type failingProvider struct{}

func (failingProvider) Reserve(int, int) ([]byte, error) { return nil, errReserve }
func (failingProvider) Release([]byte, int, int) error  { return nil }

// countingConfig returns DefaultConfig backed by a counting provider over the
// platform default.
func countingConfig(t *testing.T) (*Config, *rawmem.Counting) {
	t.Helper()
	counter := rawmem.NewCounting(rawmem.Default())
	cfg := DefaultConfig
	cfg.Provider = counter
	return &cfg, counter
}
