package pprof

import (
	"fmt"
	"io"

	"github.com/VladMinzatu/kallsyms-extract/internal/kallsyms"
	"github.com/google/pprof/profile"
)

// BuildPprofProfile turns the symbol table into a profile with one sample per
// symbol, which lets pprof tooling browse it as an address to name table.
func BuildPprofProfile(symbols []kallsyms.Symbol, imagePath string) (*profile.Profile, error) {
	if len(symbols) == 0 {
		p := &profile.Profile{}
		return p, nil
	}

	p := &profile.Profile{
		SampleType: []*profile.ValueType{{Type: "symbols", Unit: "count"}},
	}

	low, high := symbols[0].Addr, symbols[0].Addr
	for _, s := range symbols[1:] {
		low = min(low, s.Addr)
		high = max(high, s.Addr)
	}
	mapping := &profile.Mapping{
		ID:    1,
		Start: uint64(low),
		Limit: uint64(high) + 1,
		File:  imagePath,
	}
	p.Mapping = []*profile.Mapping{mapping}

	funcs := map[string]*profile.Function{}
	nextFuncID := uint64(1)

	addFunction := func(name string) *profile.Function {
		if f, ok := funcs[name]; ok {
			return f
		}
		fn := &profile.Function{
			ID:         nextFuncID,
			Name:       name,
			SystemName: name,
		}
		nextFuncID++
		funcs[name] = fn
		p.Function = append(p.Function, fn)
		return fn
	}

	// aliases share an address, so every symbol gets its own location
	for i, sym := range symbols {
		loc := &profile.Location{
			ID:      uint64(i + 1),
			Mapping: mapping,
			Address: uint64(sym.Addr),
			Line:    []profile.Line{{Function: addFunction(sym.Name), Line: 0}},
		}
		p.Location = append(p.Location, loc)
		p.Sample = append(p.Sample, &profile.Sample{
			Value:    []int64{1},
			Location: []*profile.Location{loc},
			Label:    map[string][]string{"kind": {string(sym.Kind)}},
		})
	}

	if err := p.CheckValid(); err != nil {
		return nil, fmt.Errorf("invalid pprof profile: %w", err)
	}
	return p, nil
}

// WriteProfile writes p in the gzipped protobuf encoding.
func WriteProfile(p *profile.Profile, w io.Writer) error {
	return p.Write(w)
}
