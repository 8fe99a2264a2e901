package kallsyms

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Locate returns the offset of the first run of layout.AnchorRepeat
// consecutive little-endian copies of layout.Anchor.
func Locate(image []byte, layout Layout) (uint64, error) {
	if layout.AnchorRepeat < 1 {
		return 0, fmt.Errorf("%w: anchor repeat must be >= 1, got %d", ErrInvalidLayout, layout.AnchorRepeat)
	}
	word := binary.LittleEndian.AppendUint32(nil, layout.Anchor)
	pattern := bytes.Repeat(word, layout.AnchorRepeat)
	i := bytes.Index(image, pattern)
	if i < 0 {
		return 0, fmt.Errorf("%w: no %d consecutive copies of anchor 0x%08X", ErrNotFound, layout.AnchorRepeat, layout.Anchor)
	}
	return uint64(i), nil
}
