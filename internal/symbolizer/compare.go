package symbolizer

import (
	"log/slog"

	"github.com/samber/lo"
)

type AddrMismatch struct {
	Name      string
	Extracted uint64
	Reference []uint64
}

// Comparison is the result of checking extracted symbols against a reference
// listing such as a /proc/kallsyms dump taken from the running kernel.
type Comparison struct {
	Matched    int
	Missing    []string
	Mismatched []AddrMismatch
}

func (c Comparison) OK() bool {
	return len(c.Missing) == 0 && len(c.Mismatched) == 0
}

// Compare looks up every extracted symbol by name in reference. Module
// symbols in the reference are ignored since they are not part of the image.
func Compare(extracted, reference []KallsymsEntry) Comparison {
	core := lo.Filter(reference, func(e KallsymsEntry, _ int) bool { return e.Module == "" })
	byName := lo.GroupBy(core, func(e KallsymsEntry) string { return e.Name })

	var c Comparison
	for _, e := range extracted {
		refs, ok := byName[e.Name]
		if !ok {
			c.Missing = append(c.Missing, e.Name)
			continue
		}
		if lo.ContainsBy(refs, func(r KallsymsEntry) bool { return r.Addr == e.Addr }) {
			c.Matched++
			continue
		}
		c.Mismatched = append(c.Mismatched, AddrMismatch{
			Name:      e.Name,
			Extracted: e.Addr,
			Reference: lo.Map(refs, func(r KallsymsEntry, _ int) uint64 { return r.Addr }),
		})
	}
	slog.Info("Compared against reference kallsyms", "matched", c.Matched, "missing", len(c.Missing), "mismatched", len(c.Mismatched))
	return c
}
