package kallsyms

import "fmt"

// walkNames skips numSymbols length-prefixed name records starting at off and
// returns the offset just past the last one.
func walkNames(image []byte, off, numSymbols uint64) (uint64, error) {
	for i := uint64(0); i < numSymbols; i++ {
		n, err := readU8(image, off)
		if err != nil {
			return 0, malformed("names", off, err)
		}
		next := off + 1 + uint64(n)
		if next > uint64(len(image)) {
			return 0, malformed("names", off, fmt.Errorf("%w: symbol %d has %d tokens, image is %d bytes", ErrOutOfBounds, i, n, len(image)))
		}
		off = next
	}
	return off, nil
}

// walkTokens skips the 256 token strings starting at off and returns the
// offset just past the last terminator.
func walkTokens(image []byte, off uint64) (uint64, error) {
	for i := 0; i < tokenTableSize; i++ {
		s, err := readCString(image, off)
		if err != nil {
			return 0, malformed("token table", off, err)
		}
		off += uint64(len(s)) + 1
	}
	return off, nil
}

// resolveTables fills in every offset that follows the address table.
func resolveTables(image []byte, addrs addressTable, layout Layout) (Offsets, error) {
	offs := Offsets{Addresses: addrs.start, NumSyms: addrs.numSymsOff}

	var err error
	if offs.Names, err = layout.next(addrs.numSymsOff + wordSize); err != nil {
		return Offsets{}, malformed("names", addrs.numSymsOff, err)
	}
	namesEnd, err := walkNames(image, offs.Names, addrs.count)
	if err != nil {
		return Offsets{}, err
	}
	if offs.Markers, err = layout.next(namesEnd); err != nil {
		return Offsets{}, malformed("markers", namesEnd, err)
	}

	// The markers are only needed for random access into the names, so they
	// are skipped rather than read.
	markersEnd, err := add(offs.Markers, layout.markerTableSize(addrs.count))
	if err != nil {
		return Offsets{}, malformed("markers", offs.Markers, err)
	}
	offs.TokenTable = layout.alignDown(markersEnd)

	tokensEnd, err := walkTokens(image, offs.TokenTable)
	if err != nil {
		return Offsets{}, err
	}
	if offs.TokenIndex, err = layout.next(tokensEnd); err != nil {
		return Offsets{}, malformed("token index", tokensEnd, err)
	}
	return offs, nil
}
