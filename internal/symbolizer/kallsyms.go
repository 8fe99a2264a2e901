package symbolizer

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/VladMinzatu/kallsyms-extract/internal/kallsyms"
)

type KallsymsLoader interface {
	Load() ([]KallsymsEntry, error)
}

// KallsymsFile loads a /proc/kallsyms style text dump.
type KallsymsFile struct {
	Path string
}

func (f KallsymsFile) Load() ([]KallsymsEntry, error) {
	slog.Debug("Loading kallsyms listing", "path", f.Path)
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ParseKallsyms(file)
}

// ExtractedKallsyms serves symbols recovered from a kernel image.
type ExtractedKallsyms []kallsyms.Symbol

func (e ExtractedKallsyms) Load() ([]KallsymsEntry, error) {
	entries := make([]KallsymsEntry, 0, len(e))
	for _, s := range e {
		entries = append(entries, KallsymsEntry{Addr: uint64(s.Addr), Kind: s.Kind, Name: s.Name})
	}
	return entries, nil
}

// ParseKallsyms reads "addr type name [module]" lines. Lines that do not
// parse are skipped.
func ParseKallsyms(r io.Reader) ([]KallsymsEntry, error) {
	var entries []KallsymsEntry
	s := bufio.NewScanner(r)
	for s.Scan() {
		// Format: "c0008000 T stext" or "bf000000 t init_module\t[foo]"
		parts := strings.Fields(s.Text())
		if len(parts) < 3 || len(parts[1]) != 1 {
			continue
		}
		addr, err := strconv.ParseUint(parts[0], 16, 64)
		if err != nil {
			continue
		}
		entry := KallsymsEntry{Addr: addr, Kind: parts[1][0], Name: parts[2]}
		if len(parts) > 3 {
			entry.Module = strings.Trim(parts[3], "[]")
		}
		entries = append(entries, entry)
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("reading kallsyms: %w", err)
	}
	return entries, nil
}

type KallsymsResolver struct {
	entries []KallsymsEntry
}

func InitKallsymsResolver(loader KallsymsLoader) (*KallsymsResolver, error) {
	loaded, err := loader.Load()
	if err != nil {
		return nil, err
	}
	slog.Info("Loaded kallsyms for kernel symbolization", "entries", len(loaded))

	// Sort a copy by address to allow binary search; aliases keep their order
	entries := make([]KallsymsEntry, len(loaded))
	copy(entries, loaded)
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Addr < entries[j].Addr })
	return &KallsymsResolver{entries: entries}, nil
}

func (r *KallsymsResolver) Resolve(pc uint64) (*Symbol, error) {
	if len(r.entries) == 0 {
		return nil, fmt.Errorf("empty kallsyms table")
	}
	// Find greatest entry.Addr <= pc
	i := sort.Search(len(r.entries), func(i int) bool { return r.entries[i].Addr > pc })
	if i == 0 {
		return nil, fmt.Errorf("no kernel symbol <= pc: 0x%x", pc)
	}
	entry := r.entries[i-1]
	return &Symbol{Name: entry.Name, Kind: entry.Kind, Addr: entry.Addr, Offset: pc - entry.Addr}, nil
}
