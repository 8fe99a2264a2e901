package symbolizer

import (
	"errors"
	"log/slog"
)

var errNoResolver = errors.New("no resolver for kernel symbolization could be loaded")

// KernelSymbolizer resolves kernel addresses against a kallsyms table that is
// loaded on first use.
type KernelSymbolizer struct {
	loader   KallsymsLoader
	resolver *KallsymsResolver
	initErr  error
}

func NewKernelSymbolizer(loader KallsymsLoader) *KernelSymbolizer {
	return &KernelSymbolizer{loader: loader}
}

func (s *KernelSymbolizer) init() error {
	if s.resolver != nil || s.initErr != nil {
		return s.initErr
	}
	r, err := InitKallsymsResolver(s.loader)
	if err != nil {
		slog.Error("Failed to load kallsyms", "error", err)
		s.initErr = errNoResolver
		return s.initErr
	}
	s.resolver = r
	return nil
}

// Symbolize resolves each pc. Addresses below the first symbol are skipped.
func (s *KernelSymbolizer) Symbolize(stack []uint64) ([]Symbol, error) {
	if err := s.init(); err != nil {
		return nil, err
	}

	symbols := make([]Symbol, 0, len(stack))
	for _, pc := range stack {
		sym, err := s.resolver.Resolve(pc)
		if err != nil {
			slog.Warn("Failed to resolve kernel symbol - skipping frame", "pc", pc, "error", err)
			continue
		}
		symbols = append(symbols, *sym)
	}
	return symbols, nil
}
