// Package image loads kernel images into memory for extraction.
package image

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

type Options struct {
	// Decompress transparently inflates gzip and zstd compressed images.
	Decompress bool
}

func DefaultOptions() Options {
	return Options{Decompress: true}
}

// Image is a read-only kernel image. Bytes must not be modified or used after
// Close.
type Image struct {
	Path        string
	Compression string

	data    []byte
	release func() error
}

// Load reads the image at path. The caller must Close it.
func Load(path string, opts Options) (*Image, error) {
	data, release, err := mapFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading kernel image %s: %w", path, err)
	}
	img := &Image{Path: path, data: data, release: release}

	if opts.Decompress {
		if err := img.decompress(); err != nil {
			img.Close()
			return nil, fmt.Errorf("loading kernel image %s: %w", path, err)
		}
	}
	slog.Info("Loaded kernel image", "path", path, "size", humanize.Bytes(uint64(len(img.data))), "compression", img.compressionName())
	return img, nil
}

func (i *Image) Bytes() []byte { return i.data }

func (i *Image) Close() error {
	i.data = nil
	if i.release == nil {
		return nil
	}
	release := i.release
	i.release = nil
	return release()
}

func (i *Image) compressionName() string {
	if i.Compression == "" {
		return "none"
	}
	return i.Compression
}

// decompress replaces the mapped data with its inflated copy and releases
// the mapping.
func (i *Image) decompress() error {
	var (
		r   io.ReadCloser
		err error
	)
	switch {
	case bytes.HasPrefix(i.data, gzipMagic):
		i.Compression = "gzip"
		r, err = gzip.NewReader(bytes.NewReader(i.data))
	case bytes.HasPrefix(i.data, zstdMagic):
		i.Compression = "zstd"
		var zr *zstd.Decoder
		zr, err = zstd.NewReader(bytes.NewReader(i.data))
		if err == nil {
			r = zr.IOReadCloser()
		}
	default:
		return nil
	}
	if err != nil {
		return fmt.Errorf("create %s reader: %w", i.Compression, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("decompress %s data: %w", i.Compression, err)
	}
	slog.Debug("Decompressed kernel image", "compression", i.Compression, "compressed", humanize.Bytes(uint64(len(i.data))))

	if err := i.Close(); err != nil {
		return err
	}
	i.data = data
	return nil
}
