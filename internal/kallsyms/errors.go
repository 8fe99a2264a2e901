package kallsyms

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("kallsyms address table not found")
	ErrMalformedImage      = errors.New("malformed kernel image")
	ErrSymbolCountMismatch = errors.New("kallsyms symbol count mismatch")
	ErrMalformedSymbol     = errors.New("malformed kallsyms symbol")

	ErrOutOfBounds        = errors.New("read out of bounds")
	ErrUnterminatedString = errors.New("unterminated string")
)

// ImageError reports a failed read while resolving one of the tables.
type ImageError struct {
	Stage  string
	Offset uint64
	Err    error
}

func (e *ImageError) Error() string {
	return fmt.Sprintf("%s at offset 0x%x: %v", e.Stage, e.Offset, e.Err)
}

func (e *ImageError) Unwrap() []error {
	return []error{ErrMalformedImage, e.Err}
}

func malformed(stage string, off uint64, err error) error {
	return &ImageError{Stage: stage, Offset: off, Err: err}
}

type CountMismatchError struct {
	Declared uint64
	Measured uint64
	Offset   uint64
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("address table holds %d entries but num_syms at 0x%x declares %d", e.Measured, e.Offset, e.Declared)
}

func (e *CountMismatchError) Unwrap() error { return ErrSymbolCountMismatch }

type SymbolError struct {
	Index  uint64
	Offset uint64
	Reason string
}

func (e *SymbolError) Error() string {
	return fmt.Sprintf("symbol %d at offset 0x%x: %s", e.Index, e.Offset, e.Reason)
}

func (e *SymbolError) Unwrap() error { return ErrMalformedSymbol }
