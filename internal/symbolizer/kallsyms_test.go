package symbolizer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/VladMinzatu/kallsyms-extract/internal/kallsyms"
)

type mockLoader struct {
	entries []KallsymsEntry
	err     error
}

func (m *mockLoader) Load() ([]KallsymsEntry, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.entries, nil
}

func TestParseKallsyms(t *testing.T) {
	input := strings.Join([]string{
		"c0008000 T stext",
		"c0008000 T _text",
		"  c0100000    T   start_kernel  ",
		"bf000000 t init_module\t[ext4]",
		// malformed entries (should be skipped)
		"badline",
		"zzzzzzzz T invalid_addr",
		"c0200000 TT two_letter_kind",
		"c0300000",
		"",
	}, "\n")

	entries, err := ParseKallsyms(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseKallsyms returned error: %v", err)
	}

	want := []KallsymsEntry{
		{Addr: 0xc0008000, Kind: 'T', Name: "stext"},
		{Addr: 0xc0008000, Kind: 'T', Name: "_text"},
		{Addr: 0xc0100000, Kind: 'T', Name: "start_kernel"},
		{Addr: 0xbf000000, Kind: 't', Name: "init_module", Module: "ext4"},
	}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d: %+v", len(want), len(entries), entries)
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("entry %d: want %+v got %+v", i, want[i], entries[i])
		}
	}
}

func TestKallsymsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kallsyms")
	if err := os.WriteFile(path, []byte("c0008000 T stext\nc0008040 t __create_page_tables\n"), 0o644); err != nil {
		t.Fatalf("write kallsyms: %v", err)
	}

	entries, err := KallsymsFile{Path: path}.Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(entries) != 2 || entries[1].Name != "__create_page_tables" {
		t.Fatalf("unexpected entries: %+v", entries)
	}

	_, err = KallsymsFile{Path: filepath.Join(t.TempDir(), "missing")}.Load()
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestExtractedKallsyms(t *testing.T) {
	syms := []kallsyms.Symbol{
		{Addr: 0xC0008000, Kind: 'T', Name: "stext"},
		{Addr: 0xC0100000, Kind: 'D', Name: "init_task"},
	}
	entries, err := ExtractedKallsyms(syms).Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	want := []KallsymsEntry{
		{Addr: 0xC0008000, Kind: 'T', Name: "stext"},
		{Addr: 0xC0100000, Kind: 'D', Name: "init_task"},
	}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("entry %d: want %+v got %+v", i, want[i], entries[i])
		}
	}
}

func TestInitKallsymsResolver_and_Resolve(t *testing.T) {
	t.Run("sorts_and_resolves_offsets", func(t *testing.T) {
		// note: input is in kernel order, not address order
		entries := []KallsymsEntry{
			{Addr: 0xc0101000, Kind: 'T', Name: "do_one"},
			{Addr: 0xc0100000, Kind: 'T', Name: "start_kernel"},
			{Addr: 0xc0102000, Kind: 'T', Name: "do_two"},
			{Addr: 0xc0103000, Kind: 'D', Name: "last_data"},
		}
		original := append([]KallsymsEntry(nil), entries...)

		resolver, err := InitKallsymsResolver(&mockLoader{entries: entries})
		if err != nil {
			t.Fatalf("InitKallsymsResolver returned error: %v", err)
		}
		for i := range original {
			if entries[i] != original[i] {
				t.Fatalf("loader entries were reordered: %+v", entries)
			}
		}

		tests := []struct {
			pc           uint64
			wantName     string
			wantKind     byte
			wantOffset   uint64
			expectErr    bool
			errSubstring string
		}{
			{pc: 0xc0100000, wantName: "start_kernel", wantKind: 'T', wantOffset: 0},
			{pc: 0xc0101010, wantName: "do_one", wantKind: 'T', wantOffset: 0x10},
			{pc: 0xc0102005, wantName: "do_two", wantKind: 'T', wantOffset: 0x5},
			{pc: 0xc0103000, wantName: "last_data", wantKind: 'D', wantOffset: 0},
			{pc: 0xc00ffeff, expectErr: true, errSubstring: "no kernel symbol"},
		}

		for _, tt := range tests {
			t.Run(fmt.Sprintf("pc=0x%x", tt.pc), func(t *testing.T) {
				sym, err := resolver.Resolve(tt.pc)
				if tt.expectErr {
					if err == nil {
						t.Fatalf("expected error for pc=0x%x but got symbol %+v", tt.pc, sym)
					}
					if tt.errSubstring != "" && !strings.Contains(err.Error(), tt.errSubstring) {
						t.Fatalf("expected error to contain %q, got %v", tt.errSubstring, err)
					}
					return
				}
				if err != nil {
					t.Fatalf("Resolve returned error: %v", err)
				}
				if sym.Name != tt.wantName {
					t.Fatalf("unexpected symbol name: want %q got %q", tt.wantName, sym.Name)
				}
				if sym.Kind != tt.wantKind {
					t.Fatalf("unexpected kind: want %c got %c", tt.wantKind, sym.Kind)
				}
				if sym.Offset != tt.wantOffset {
					t.Fatalf("unexpected offset: want 0x%x got 0x%x", tt.wantOffset, sym.Offset)
				}
			})
		}
	})

	t.Run("aliases_resolve_to_the_last_in_table_order", func(t *testing.T) {
		resolver, err := InitKallsymsResolver(ExtractedKallsyms{
			{Addr: 0xC0008000, Kind: 'T', Name: "stext"},
			{Addr: 0xC0008000, Kind: 'T', Name: "_text"},
		})
		if err != nil {
			t.Fatalf("InitKallsymsResolver returned error: %v", err)
		}
		sym, err := resolver.Resolve(0xC0008004)
		if err != nil {
			t.Fatalf("Resolve returned error: %v", err)
		}
		if sym.Name != "_text" || sym.Offset != 4 {
			t.Fatalf("unexpected symbol: %+v", sym)
		}
	})

	t.Run("init_returns_error_when_loader_errors", func(t *testing.T) {
		wantErr := errors.New("read failed")
		_, err := InitKallsymsResolver(&mockLoader{err: wantErr})
		if !errors.Is(err, wantErr) {
			t.Fatalf("expected underlying error; got: %v", err)
		}
	})

	t.Run("resolve_on_empty_table_returns_error", func(t *testing.T) {
		resolver, err := InitKallsymsResolver(&mockLoader{})
		if err != nil {
			t.Fatalf("InitKallsymsResolver returned unexpected error: %v", err)
		}
		_, err = resolver.Resolve(0x1000)
		if err == nil || !strings.Contains(err.Error(), "empty kallsyms table") {
			t.Fatalf("expected 'empty kallsyms table' error, got: %v", err)
		}
	})
}

func TestCompare(t *testing.T) {
	extracted, _ := ExtractedKallsyms{
		{Addr: 0xC0008000, Kind: 'T', Name: "stext"},
		{Addr: 0xC0100000, Kind: 'T', Name: "start_kernel"},
		{Addr: 0xC0100100, Kind: 't', Name: "local_fn"},
		{Addr: 0xC0200000, Kind: 'D', Name: "gone"},
	}.Load()
	reference := []KallsymsEntry{
		{Addr: 0xC0008000, Kind: 'T', Name: "stext"},
		{Addr: 0xC0100000, Kind: 'T', Name: "start_kernel"},
		// static functions can share a name
		{Addr: 0xC0300000, Kind: 't', Name: "local_fn"},
		{Addr: 0xC0400000, Kind: 't', Name: "local_fn"},
		{Addr: 0xC0200000, Kind: 'D', Name: "gone", Module: "mod"},
	}

	c := Compare(extracted, reference)
	if c.OK() {
		t.Fatalf("expected differences")
	}
	if c.Matched != 2 {
		t.Fatalf("expected 2 matches, got %d", c.Matched)
	}
	if len(c.Missing) != 1 || c.Missing[0] != "gone" {
		t.Fatalf("unexpected missing: %v", c.Missing)
	}
	if len(c.Mismatched) != 1 || c.Mismatched[0].Name != "local_fn" || len(c.Mismatched[0].Reference) != 2 {
		t.Fatalf("unexpected mismatches: %+v", c.Mismatched)
	}

	if !Compare(extracted[:2], reference).OK() {
		t.Fatalf("expected a clean comparison")
	}
}
