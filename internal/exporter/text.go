package exporter

import (
	"bufio"
	"fmt"
	"io"

	"github.com/VladMinzatu/kallsyms-extract/internal/kallsyms"
	"github.com/VladMinzatu/kallsyms-extract/internal/symbolizer"
)

// WriteText writes one "AAAAAAAA K name" line per symbol.
func WriteText(w io.Writer, symbols []kallsyms.Symbol) error {
	bw := bufio.NewWriter(w)
	for _, s := range symbols {
		if _, err := fmt.Fprintf(bw, "%08X %c %s\n", s.Addr, s.Kind, s.Name); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteResolved writes "AAAAAAAA name+0xoff" for each resolved address.
func WriteResolved(w io.Writer, symbols []symbolizer.Symbol) error {
	bw := bufio.NewWriter(w)
	for _, s := range symbols {
		if _, err := fmt.Fprintf(bw, "%08X %s+0x%x\n", s.Addr+s.Offset, s.Name, s.Offset); err != nil {
			return err
		}
	}
	return bw.Flush()
}
