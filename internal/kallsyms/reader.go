package kallsyms

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

func add(off, n uint64) (uint64, error) {
	if off > math.MaxUint64-n {
		return 0, fmt.Errorf("%w: offset 0x%x + %d overflows", ErrOutOfBounds, off, n)
	}
	return off + n, nil
}

// window returns image[off:off+n] or ErrOutOfBounds.
func window(image []byte, off, n uint64) ([]byte, error) {
	end, err := add(off, n)
	if err != nil {
		return nil, err
	}
	if end > uint64(len(image)) {
		return nil, fmt.Errorf("%w: %d bytes at 0x%x, image is %d bytes", ErrOutOfBounds, n, off, len(image))
	}
	return image[off:end], nil
}

func readU32(image []byte, off uint64) (uint32, error) {
	b, err := window(image, off, wordSize)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func readU16(image []byte, off uint64) (uint16, error) {
	b, err := window(image, off, halfWordSize)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func readU8(image []byte, off uint64) (uint8, error) {
	b, err := window(image, off, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// readCString reads a NUL-terminated string. The terminator is not included.
func readCString(image []byte, off uint64) (string, error) {
	if off >= uint64(len(image)) {
		return "", fmt.Errorf("%w: string at 0x%x, image is %d bytes", ErrOutOfBounds, off, len(image))
	}
	n := bytes.IndexByte(image[off:], 0)
	if n < 0 {
		return "", fmt.Errorf("%w: string at 0x%x", ErrUnterminatedString, off)
	}
	return string(image[off : off+uint64(n)]), nil
}
