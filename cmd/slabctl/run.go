package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/slabkit/internal/logger"
	"github.com/joshuapare/slabkit/rawmem"
	"github.com/joshuapare/slabkit/slab"
)

var (
	runSizes     []int
	runCount     int
	runFreeEvery int
	runKeep      bool
)

func init() {
	cmd := newRunCmd()
	cmd.Flags().IntSliceVar(&runSizes, "size", []int{32, 128, 400}, "Request sizes, used round-robin")
	cmd.Flags().IntVar(&runCount, "count", 1000, "Number of allocation requests")
	cmd.Flags().IntVar(&runFreeEvery, "free-every", 0, "Free every Nth successful allocation right away (0 = never)")
	cmd.Flags().BoolVar(&runKeep, "keep", false, "Report before releasing the remaining allocations")
	rootCmd.AddCommand(cmd)
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Drive an allocation workload through a cache",
		Long: `The run command issues allocation requests against a fresh slab cache,
optionally freeing some of them as it goes, then verifies every free list and
reports per-class statistics and raw provider usage.

Requests that exceed the largest class or find their class exhausted are
counted as failures; the workload continues.

Example:
  slabctl run
  slabctl run --size 24,300 --count 5000 --free-every 3
  slabctl run --preset pow2 --max-slabs 4 --keep --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkload()
		},
	}
	return cmd
}

// RunReport is the run command's JSON shape.
type RunReport struct {
	Requests  int
	Succeeded int
	Failed    int
	Released  int
	Verified  bool
	Cache     slab.CacheStats
	Provider  rawmem.CountingStats
}

type allocation struct {
	p    []byte
	size int
}

func runWorkload() error {
	if len(runSizes) == 0 {
		return errors.New("at least one --size is required")
	}
	if runCount < 0 {
		return fmt.Errorf("--count must not be negative, got %d", runCount)
	}

	cfg, err := buildConfig()
	if err != nil {
		return err
	}
	counter := cfg.Provider.(*rawmem.Counting)

	cache, err := slab.NewCache(cfg)
	if err != nil {
		return err
	}
	defer cache.Close()

	printVerbose("Cache %s with classes %v\n", cache.ID(), cache.Classes())

	report := RunReport{Requests: runCount}
	live := make([]allocation, 0, runCount)
	for i := 0; i < runCount; i++ {
		size := runSizes[i%len(runSizes)]
		p, err := cache.Allocate(size, slab.SlotAlign)
		switch {
		case err == nil:
		case errors.Is(err, slab.ErrExhausted), errors.Is(err, slab.ErrTooLarge), errors.Is(err, slab.ErrInvalidSize):
			report.Failed++
			printVerbose("request %d (%d bytes): %v\n", i, size, err)
			continue
		default:
			return fmt.Errorf("request %d (%d bytes): %w", i, size, err)
		}
		report.Succeeded++

		if runFreeEvery > 0 && report.Succeeded%runFreeEvery == 0 {
			cache.Deallocate(p, size, slab.SlotAlign)
			report.Released++
			continue
		}
		live = append(live, allocation{p: p, size: size})
	}

	if !runKeep {
		for _, a := range live {
			cache.Deallocate(a.p, a.size, slab.SlotAlign)
			report.Released++
		}
	}

	if err := cache.Verify(); err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	report.Verified = true
	report.Cache = cache.Stats()
	report.Provider = counter.Stats()
	logger.Info("workload finished",
		"requests", report.Requests, "succeeded", report.Succeeded, "failed", report.Failed,
		"reserved_bytes", report.Cache.ReservedBytes)

	if jsonOut {
		return printJSON(report)
	}
	if quiet {
		return nil
	}

	printInfo("Requests: %d  succeeded: %d  failed: %d  released: %d\n",
		report.Requests, report.Succeeded, report.Failed, report.Released)
	if err := report.Cache.Write(os.Stdout); err != nil {
		return err
	}
	printInfo("provider: %d blocks reserved, %d bytes live\n",
		report.Provider.Reserves, report.Provider.LiveBytes)
	printInfo("free lists verified\n")
	return nil
}
