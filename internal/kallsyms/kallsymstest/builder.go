// Package kallsymstest builds synthetic kernel images for tests.
package kallsymstest

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/VladMinzatu/kallsyms-extract/internal/kallsyms"
)

const TokenTableSize = 256

// Image lays out a kallsyms blob with the same alignment rules the extractor
// uses, surrounded by filler that never matches an anchor.
type Image struct {
	Layout   kallsyms.Layout
	Prefix   int
	Addrs    []uint32
	Names    [][]byte
	Tokens   [TokenTableSize]string
	Declared *uint32 // overrides num_syms
	Trailer  int
}

// DefaultTokens maps every printable ASCII character to itself so names can
// be written with Encode.
func DefaultTokens() [TokenTableSize]string {
	var tokens [TokenTableSize]string
	for i := range tokens {
		if i >= 0x20 && i < 0x7f {
			tokens[i] = string(rune(i))
		} else {
			tokens[i] = fmt.Sprintf("<%02x>", i)
		}
	}
	return tokens
}

// Encode turns a printable name into token indices for DefaultTokens.
func Encode(name string) []byte {
	return []byte(name)
}

func New(syms ...kallsyms.Symbol) *Image {
	ti := &Image{
		Layout:  kallsyms.DefaultLayout(),
		Prefix:  0x24,
		Tokens:  DefaultTokens(),
		Trailer: 64,
	}
	for _, s := range syms {
		ti.Addrs = append(ti.Addrs, s.Addr)
		ti.Names = append(ti.Names, Encode(string(s.Kind)+s.Name))
	}
	return ti
}

// Build returns the image and the offsets each table was written at.
func (ti *Image) Build() ([]byte, kallsyms.Offsets) {
	l := ti.Layout
	alignDown := func(off uint64) uint64 { return off &^ (l.Alignment - 1) }

	var img []byte
	put := func(off uint64, data []byte) {
		if end := off + uint64(len(data)); end > uint64(len(img)) {
			img = append(img, make([]byte, end-uint64(len(img)))...)
		}
		copy(img[off:], data)
	}

	put(0, bytes.Repeat([]byte{0xAA}, ti.Prefix))

	var offs kallsyms.Offsets
	offs.Addresses = uint64(ti.Prefix)
	off := offs.Addresses
	for _, a := range ti.Addrs {
		put(off, LE32(a))
		off += 4
	}
	put(off, LE32(0))

	offs.NumSyms = alignDown(off + l.Alignment)
	declared := uint32(len(ti.Addrs))
	if ti.Declared != nil {
		declared = *ti.Declared
	}
	put(offs.NumSyms, LE32(declared))

	offs.Names = alignDown(offs.NumSyms + 4 + l.Alignment)
	off = offs.Names
	var markers []uint32
	for i, n := range ti.Names {
		if uint64(i)%l.MarkerStride == 0 {
			markers = append(markers, uint32(off-offs.Names))
		}
		put(off, append([]byte{byte(len(n))}, n...))
		off += uint64(len(n)) + 1
	}

	offs.Markers = alignDown(off + l.Alignment)
	for i, m := range markers {
		put(offs.Markers+uint64(i)*4, LE32(m))
	}

	// The token table may start inside the marker table; markers are never
	// read back, so the tokens simply overwrite them.
	offs.TokenTable = alignDown(offs.Markers + uint64(len(markers))*4)
	off = offs.TokenTable
	var index []byte
	for _, tok := range ti.Tokens {
		index = binary.LittleEndian.AppendUint16(index, uint16(off-offs.TokenTable))
		put(off, append([]byte(tok), 0))
		off += uint64(len(tok)) + 1
	}

	offs.TokenIndex = alignDown(off + l.Alignment)
	put(offs.TokenIndex, index)
	put(uint64(len(img)), bytes.Repeat([]byte{0xAA}, ti.Trailer))
	return img, offs
}

func LE32(v uint32) []byte {
	return binary.LittleEndian.AppendUint32(nil, v)
}
