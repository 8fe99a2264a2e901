package kallsyms

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReaders(t *testing.T) {
	image := []byte{0x78, 0x56, 0x34, 0x12, 'h', 'i', 0, 0xff}

	t.Run("little endian", func(t *testing.T) {
		v32, err := readU32(image, 0)
		require.NoError(t, err)
		require.Equal(t, uint32(0x12345678), v32)

		v16, err := readU16(image, 1)
		require.NoError(t, err)
		require.Equal(t, uint16(0x3456), v16)

		v8, err := readU8(image, 7)
		require.NoError(t, err)
		require.Equal(t, uint8(0xff), v8)
	})

	t.Run("no sign extension", func(t *testing.T) {
		v, err := readU32([]byte{0xff, 0xff, 0xff, 0xff}, 0)
		require.NoError(t, err)
		require.Equal(t, uint32(math.MaxUint32), v)
	})

	t.Run("out of bounds", func(t *testing.T) {
		_, err := readU32(image, 5)
		require.ErrorIs(t, err, ErrOutOfBounds)
		_, err = readU16(image, 7)
		require.ErrorIs(t, err, ErrOutOfBounds)
		_, err = readU8(image, 8)
		require.ErrorIs(t, err, ErrOutOfBounds)
		_, err = readCString(image, 8)
		require.ErrorIs(t, err, ErrOutOfBounds)
	})

	t.Run("offset overflow fails instead of wrapping", func(t *testing.T) {
		_, err := readU32(image, math.MaxUint64-1)
		require.ErrorIs(t, err, ErrOutOfBounds)
	})

	t.Run("c strings", func(t *testing.T) {
		s, err := readCString(image, 4)
		require.NoError(t, err)
		require.Equal(t, "hi", s)

		s, err = readCString(image, 6)
		require.NoError(t, err)
		require.Equal(t, "", s)

		_, err = readCString(image, 7)
		require.ErrorIs(t, err, ErrUnterminatedString)
	})
}
