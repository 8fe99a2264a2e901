package exporter

import (
	"fmt"
	"io"
	"slices"

	"github.com/VladMinzatu/kallsyms-extract/internal/kallsyms"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

type Stats struct {
	Symbols   int
	ImageSize uint64
	MinAddr   uint32
	MaxAddr   uint32
	Kinds     map[byte]int
	Offsets   kallsyms.Offsets
}

func Summarize(table *kallsyms.SymbolTable, imageSize int) Stats {
	s := Stats{
		Symbols:   len(table.Symbols),
		ImageSize: uint64(imageSize),
		Offsets:   table.Offsets,
		Kinds:     lo.CountValuesBy(table.Symbols, func(sym kallsyms.Symbol) byte { return sym.Kind }),
	}
	if len(table.Symbols) > 0 {
		s.MinAddr, s.MaxAddr = addrRange(table.Symbols)
	}
	return s
}

func RenderStats(w io.Writer, s Stats) error {
	if _, err := fmt.Fprintf(w, "symbols: %d\nimage size: %s\naddress range: 0x%08X-0x%08X (%s)\n",
		s.Symbols, humanize.IBytes(s.ImageSize), s.MinAddr, s.MaxAddr, humanize.IBytes(uint64(s.MaxAddr-s.MinAddr))); err != nil {
		return err
	}

	kinds := lo.Keys(s.Kinds)
	slices.Sort(kinds)
	kindTable := tablewriter.NewWriter(w)
	kindTable.SetHeader([]string{"Kind", "Count"})
	for _, k := range kinds {
		kindTable.Append([]string{string(k), fmt.Sprint(s.Kinds[k])})
	}
	kindTable.Render()

	offsetTable := tablewriter.NewWriter(w)
	offsetTable.SetHeader([]string{"Table", "Offset"})
	for _, row := range []struct {
		name string
		off  uint64
	}{
		{"kallsyms_addresses", s.Offsets.Addresses},
		{"kallsyms_num_syms", s.Offsets.NumSyms},
		{"kallsyms_names", s.Offsets.Names},
		{"kallsyms_markers", s.Offsets.Markers},
		{"kallsyms_token_table", s.Offsets.TokenTable},
		{"kallsyms_token_index", s.Offsets.TokenIndex},
	} {
		offsetTable.Append([]string{row.name, fmt.Sprintf("0x%x", row.off)})
	}
	offsetTable.Render()
	return nil
}
