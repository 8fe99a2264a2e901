package kallsyms

import (
	"errors"
	"fmt"
	"math/bits"
)

const (
	// DefaultAnchor is the address the kernel text segment is usually loaded at.
	DefaultAnchor uint32 = 0xC0008000

	// Kernels emit at least two symbols at the start of text ("stext" and
	// "_text"), so two consecutive copies of the anchor mark the address table.
	DefaultAnchorRepeat = 2

	DefaultAlignment    = 16
	DefaultMarkerStride = 256

	tokenTableSize = 256
	wordSize       = 4
	halfWordSize   = 2
)

var ErrInvalidLayout = errors.New("invalid kallsyms layout")

// Layout describes how the kallsyms tables are laid out in the image.
type Layout struct {
	Anchor       uint32
	AnchorRepeat int
	Alignment    uint64
	MarkerStride uint64
}

func DefaultLayout() Layout {
	return Layout{
		Anchor:       DefaultAnchor,
		AnchorRepeat: DefaultAnchorRepeat,
		Alignment:    DefaultAlignment,
		MarkerStride: DefaultMarkerStride,
	}
}

func (l Layout) Validate() error {
	if l.AnchorRepeat < 1 {
		return fmt.Errorf("%w: anchor repeat must be >= 1, got %d", ErrInvalidLayout, l.AnchorRepeat)
	}
	if l.Alignment == 0 || bits.OnesCount64(l.Alignment) != 1 {
		return fmt.Errorf("%w: alignment must be a power of two, got %d", ErrInvalidLayout, l.Alignment)
	}
	if l.MarkerStride == 0 {
		return fmt.Errorf("%w: marker stride must be > 0", ErrInvalidLayout)
	}
	return nil
}

func (l Layout) alignDown(off uint64) uint64 {
	return off &^ (l.Alignment - 1)
}

// next returns the aligned offset of the table that follows one ending at off.
func (l Layout) next(off uint64) (uint64, error) {
	end, err := add(off, l.Alignment)
	if err != nil {
		return 0, err
	}
	return l.alignDown(end), nil
}

func (l Layout) markerTableSize(numSymbols uint64) uint64 {
	return (numSymbols + l.MarkerStride - 1) / l.MarkerStride * wordSize
}
