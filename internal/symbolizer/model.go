package symbolizer

// Symbol is a resolved kernel address: the enclosing symbol and how far into
// it the address lies.
type Symbol struct {
	Name   string
	Kind   byte
	Addr   uint64
	Offset uint64
}

// KallsymsEntry is one line of a kallsyms listing, whether read from text or
// recovered from a kernel image.
type KallsymsEntry struct {
	Addr   uint64
	Kind   byte
	Name   string
	Module string
}
