package kallsyms

// addressTable is the result of resolving where kallsyms_addresses ends.
type addressTable struct {
	start      uint64
	end        uint64 // offset of the zero terminator
	numSymsOff uint64
	count      uint64
}

func resolveBounds(image []byte, start uint64, layout Layout) (addressTable, error) {
	end := start
	for {
		v, err := readU32(image, end)
		if err != nil {
			return addressTable{}, malformed("address table terminator", end, err)
		}
		if v == 0 {
			break
		}
		end += wordSize
	}
	// end advances in whole words, so the span is always a multiple of wordSize.
	measured := (end - start) / wordSize

	numSymsOff, err := layout.next(end)
	if err != nil {
		return addressTable{}, malformed("num_syms", end, err)
	}
	declared, err := readU32(image, numSymsOff)
	if err != nil {
		return addressTable{}, malformed("num_syms", numSymsOff, err)
	}
	if uint64(declared) != measured {
		return addressTable{}, &CountMismatchError{Declared: uint64(declared), Measured: measured, Offset: numSymsOff}
	}
	return addressTable{start: start, end: end, numSymsOff: numSymsOff, count: measured}, nil
}
