package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuapare/slabkit/slab"
)

func init() {
	rootCmd.AddCommand(newClassesCmd())
}

func newClassesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classes",
		Short: "Show the size-class geometry of a configuration",
		Long: `The classes command prints, for each size class, the slot size after
rounding, how many slots fit in one block, the class's slot and memory
ceilings and the bytes left unused at the end of each block.

Example:
  slabctl classes
  slabctl classes --preset pow2
  slabctl classes --classes 24,96,384 --max-slabs 32 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClasses()
		},
	}
	return cmd
}

// ClassInfo describes one size class.
type ClassInfo struct {
	ObjectSize   int // largest request the class serves
	MinRequest   int // smallest request routed here
	SlotSize     int
	SlotsPerSlab int
	MaxSlots     int
	MaxBytes     int
	TailWaste    int // unused bytes at the end of each block
}

// ClassTable is the classes command's JSON shape.
type ClassTable struct {
	Config    string
	BlockSize int
	MaxSlabs  int
	Classes   []ClassInfo
}

func describeClasses(cfg *slab.Config) ClassTable {
	table := ClassTable{Config: cfg.Name, BlockSize: cfg.BlockSize, MaxSlabs: cfg.MaxSlabs}
	prev := 0
	for _, size := range cfg.Classes {
		slot := slab.SlotSize(size)
		per := cfg.BlockSize / slot
		table.Classes = append(table.Classes, ClassInfo{
			ObjectSize:   size,
			MinRequest:   prev + 1,
			SlotSize:     slot,
			SlotsPerSlab: per,
			MaxSlots:     per * cfg.MaxSlabs,
			MaxBytes:     cfg.BlockSize * cfg.MaxSlabs,
			TailWaste:    cfg.BlockSize - per*slot,
		})
		prev = size
	}
	return table
}

func runClasses() error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}
	table := describeClasses(cfg)

	if jsonOut {
		return printJSON(table)
	}
	if quiet {
		return nil
	}

	p := message.NewPrinter(language.English)
	p.Fprintf(os.Stdout, "Configuration: %s (%d-byte blocks, up to %d slabs per class)\n\n",
		table.Config, table.BlockSize, table.MaxSlabs)
	p.Fprintf(os.Stdout, "%-12s %6s %10s %10s %10s %6s\n", "requests", "slot", "per slab", "max slots", "max bytes", "tail")
	for _, c := range table.Classes {
		span := p.Sprintf("%d-%d", c.MinRequest, c.ObjectSize)
		p.Fprintf(os.Stdout, "%-12s %6d %10d %10d %10d %6d\n",
			span, c.SlotSize, c.SlotsPerSlab, c.MaxSlots, c.MaxBytes, c.TailWaste)
	}
	return nil
}
