// Package kallsyms recovers the compressed kernel symbol table from a raw
// 32-bit little-endian kernel image without relying on ELF headers.
//
// The tables are found heuristically: the address table is assumed to start
// at the first place where the text segment start address appears
// Layout.AnchorRepeat times in a row, and to end at the next zero word. The
// only consistency check is that the table length matches the num_syms field
// that follows it. An image crafted to contain the same pattern elsewhere, or
// an unusual build whose first symbols are not at the text start, can defeat
// this and is either rejected or, in the worst case, decoded into garbage.
//
// The rest of the layout follows the kernel's scripts/kallsyms output, where
// every table starts on a Layout.Alignment boundary:
//
//	kallsyms_addresses    u32 x num_syms, zero terminated
//	kallsyms_num_syms     u32
//	kallsyms_names        (len u8, token u8 x len) x num_syms
//	kallsyms_markers      u32 x ceil(num_syms / MarkerStride)
//	kallsyms_token_table  NUL-terminated string x 256
//	kallsyms_token_index  u16 x 256
package kallsyms
