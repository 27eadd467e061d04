package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/slabkit/internal/logger"
	"github.com/joshuapare/slabkit/rawmem"
	"github.com/joshuapare/slabkit/slab"
)

var (
	// Global flags
	verbose bool
	quiet   bool
	jsonOut bool

	// Geometry flags
	preset    string
	blockSize int
	maxSlabs  int
	classes   []int
	provider  string
)

var rootCmd = &cobra.Command{
	Use:   "slabctl",
	Short: "Inspect and exercise fixed-size slab caches",
	Long: `slabctl prints the size-class geometry of a slab cache configuration and
drives allocation workloads through a cache to show how slabs fill, how much
raw memory they hold and whether their free lists stay consistent.`,
	Version: "0.1.0",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			return logger.Init(logger.Options{Enabled: true, Writer: os.Stderr, Level: slog.LevelDebug})
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")

	rootCmd.PersistentFlags().StringVar(&preset, "preset", "default", "Base configuration: default or pow2")
	rootCmd.PersistentFlags().IntVar(&blockSize, "block-size", 0, "Override the slab block size in bytes")
	rootCmd.PersistentFlags().IntVar(&maxSlabs, "max-slabs", 0, "Override the slab ceiling per size class")
	rootCmd.PersistentFlags().IntSliceVar(&classes, "classes", nil, "Override the size classes (e.g. 32,128,512)")
	rootCmd.PersistentFlags().StringVar(&provider, "provider", "default", "Raw memory provider: default, mmap or heap")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildConfig assembles the cache configuration from the global flags.
func buildConfig() (*slab.Config, error) {
	var cfg slab.Config
	switch strings.ToLower(preset) {
	case "default", "":
		cfg = slab.DefaultConfig
	case "pow2", "powersoftwo":
		cfg = slab.ConfigPowersOfTwo
	default:
		return nil, fmt.Errorf("unknown preset %q (want default or pow2)", preset)
	}
	cfg.Classes = append([]int(nil), cfg.Classes...)

	if blockSize > 0 {
		cfg.BlockSize = blockSize
		if cfg.MaxObjectSize > blockSize {
			cfg.MaxObjectSize = blockSize
		}
	}
	if maxSlabs > 0 {
		cfg.MaxSlabs = maxSlabs
	}
	if len(classes) > 0 {
		cfg.Classes = append([]int(nil), classes...)
		if last := classes[len(classes)-1]; last > cfg.MaxObjectSize {
			cfg.MaxObjectSize = last
		}
		cfg.Name = "Custom"
	}

	p, err := buildProvider()
	if err != nil {
		return nil, err
	}
	cfg.Provider = p

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func buildProvider() (*rawmem.Counting, error) {
	switch strings.ToLower(provider) {
	case "default", "":
		return rawmem.NewCounting(rawmem.Default()), nil
	case "heap":
		return rawmem.NewCounting(rawmem.NewHeap()), nil
	case "mmap":
		return newMmapProvider()
	default:
		return nil, fmt.Errorf("unknown provider %q (want default, mmap or heap)", provider)
	}
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...interface{}) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
