package kallsyms

import (
	"log/slog"
)

// Extract locates and decodes the kallsyms tables in image. It either returns
// every symbol, in the kernel's own order, or an error; there are no partial
// results.
func Extract(image []byte, layout Layout) (*SymbolTable, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}

	start, err := Locate(image, layout)
	if err != nil {
		return nil, err
	}
	slog.Debug("Found kallsyms address table", "offset", start, "anchor", layout.Anchor)

	addrs, err := resolveBounds(image, start, layout)
	if err != nil {
		return nil, err
	}
	slog.Debug("Resolved address table bounds", "start", addrs.start, "end", addrs.end, "symbols", addrs.count)

	offs, err := resolveTables(image, addrs, layout)
	if err != nil {
		return nil, err
	}
	slog.Debug("Resolved kallsyms tables",
		"num_syms", offs.NumSyms,
		"names", offs.Names,
		"markers", offs.Markers,
		"token_table", offs.TokenTable,
		"token_index", offs.TokenIndex)

	tokens, err := readTokens(image, offs)
	if err != nil {
		return nil, err
	}
	symbols, err := decodeSymbols(image, offs, addrs.count, tokens)
	if err != nil {
		return nil, err
	}
	slog.Info("Extracted kallsyms", "symbols", len(symbols))
	return &SymbolTable{Offsets: offs, Tokens: tokens, Symbols: symbols}, nil
}
