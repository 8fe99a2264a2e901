package kallsyms

import (
	"fmt"
	"strings"
)

func readTokens(image []byte, offs Offsets) ([]string, error) {
	tokens := make([]string, tokenTableSize)
	for i := range tokens {
		idxOff := offs.TokenIndex + uint64(i)*halfWordSize
		idx, err := readU16(image, idxOff)
		if err != nil {
			return nil, malformed("token index", idxOff, err)
		}
		strOff := offs.TokenTable + uint64(idx)
		tok, err := readCString(image, strOff)
		if err != nil {
			return nil, malformed(fmt.Sprintf("token %d", i), strOff, err)
		}
		tokens[i] = tok
	}
	return tokens, nil
}

// decodeSymbols expands every name record and pairs it with its address.
// Tokens are concatenated in the order their indices appear in the record.
func decodeSymbols(image []byte, offs Offsets, numSymbols uint64, tokens []string) ([]Symbol, error) {
	symbols := make([]Symbol, 0, numSymbols)
	off := offs.Names
	var sb strings.Builder
	for i := uint64(0); i < numSymbols; i++ {
		n, err := readU8(image, off)
		if err != nil {
			return nil, malformed("names", off, err)
		}
		idx, err := window(image, off+1, uint64(n))
		if err != nil {
			return nil, malformed("names", off, err)
		}

		sb.Reset()
		for _, t := range idx {
			sb.WriteString(tokens[t])
		}
		decoded := sb.String()
		switch len(decoded) {
		case 0:
			return nil, &SymbolError{Index: i, Offset: off, Reason: "decodes to an empty string"}
		case 1:
			return nil, &SymbolError{Index: i, Offset: off, Reason: fmt.Sprintf("has kind %q but no name", decoded[0])}
		}

		addrOff := offs.Addresses + i*wordSize
		addr, err := readU32(image, addrOff)
		if err != nil {
			return nil, malformed("address table", addrOff, err)
		}
		symbols = append(symbols, Symbol{Addr: addr, Kind: decoded[0], Name: decoded[1:]})
		off += uint64(n) + 1
	}
	return symbols, nil
}
