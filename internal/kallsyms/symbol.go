package kallsyms

import "fmt"

// Symbol is one decoded kallsyms entry. Kind is the nm-style type letter
// ('T', 't', 'D', ...) stored as the first character of the compressed name.
type Symbol struct {
	Addr uint32
	Kind byte
	Name string
}

func (s Symbol) String() string {
	return fmt.Sprintf("%08X %c %s", s.Addr, s.Kind, s.Name)
}

// Offsets are the image offsets each table was resolved at.
type Offsets struct {
	Addresses  uint64
	NumSyms    uint64
	Names      uint64
	Markers    uint64
	TokenTable uint64
	TokenIndex uint64
}

type SymbolTable struct {
	Offsets Offsets
	Tokens  []string
	Symbols []Symbol
}
