package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/VladMinzatu/kallsyms-extract/internal/exporter"
	"github.com/VladMinzatu/kallsyms-extract/internal/image"
	"github.com/VladMinzatu/kallsyms-extract/internal/kallsyms"
	"github.com/VladMinzatu/kallsyms-extract/internal/pprof"
	"github.com/VladMinzatu/kallsyms-extract/internal/symbolizer"
	flag "github.com/spf13/pflag"
)

const (
	exitFailure = 1
	exitUsage   = 2
)

type options struct {
	imagePath string
	layout    kallsyms.Layout
	image     image.Options
	format    string
	output    string
	stats     bool
	resolve   []string
	compare   string
}

var errUsage = errors.New("usage error")

func main() {
	flags := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	opts, err := parseArgs(flags, os.Args[1:])
	switch {
	case errors.Is(err, flag.ErrHelp):
		return
	case err != nil:
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUsage)
	case opts == nil:
		usage(flags, os.Stdout)
		return
	}

	if err := run(opts); err != nil {
		slog.Error("Failed to extract kallsyms", "image", opts.imagePath, "error", err)
		os.Exit(exitFailure)
	}
}

func usage(flags *flag.FlagSet, w io.Writer) {
	fmt.Fprintf(w, "Usage: %s [flags] <kernel-image> [0xKERNEL_TEXT_START]\n\n", flags.Name())
	fmt.Fprintf(w, "Extracts the kallsyms symbol table from a raw 32-bit little-endian kernel image.\n")
	fmt.Fprintf(w, "The text start address defaults to 0x%08X.\n\nFlags:\n", kallsyms.DefaultAnchor)
	flags.SetOutput(w)
	flags.PrintDefaults()
}

// parseArgs returns nil options when no image was given.
func parseArgs(flags *flag.FlagSet, args []string) (*options, error) {
	layout := kallsyms.DefaultLayout()
	opts := &options{layout: layout, image: image.DefaultOptions()}

	var raw, verbose bool
	flags.StringVar(&opts.format, "format", "text", "output format: text, pprof or otlp")
	flags.StringVarP(&opts.output, "output", "o", "", "write output to this file instead of stdout")
	flags.IntVar(&opts.layout.AnchorRepeat, "repeat", layout.AnchorRepeat, "consecutive text start addresses that mark the address table")
	flags.Uint64Var(&opts.layout.Alignment, "align", layout.Alignment, "alignment of the kallsyms tables in bytes")
	flags.Uint64Var(&opts.layout.MarkerStride, "marker-stride", layout.MarkerStride, "symbols per kallsyms_markers entry")
	flags.BoolVar(&raw, "raw", false, "do not decompress gzip or zstd images")
	flags.BoolVar(&opts.stats, "stats", false, "print a summary of the symbol table to stderr")
	flags.StringSliceVar(&opts.resolve, "resolve", nil, "resolve these addresses instead of listing the symbol table")
	flags.StringVar(&opts.compare, "compare", "", "compare the result against a /proc/kallsyms dump")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	flags.Usage = func() { usage(flags, os.Stderr) }

	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	setupLogging(verbose)

	if flags.NArg() == 0 {
		return nil, nil
	}
	if flags.NArg() > 2 {
		return nil, fmt.Errorf("%w: unexpected arguments %v", errUsage, flags.Args()[2:])
	}
	opts.imagePath = flags.Arg(0)
	if flags.NArg() == 2 {
		anchor, err := parseAddr(flags.Arg(1), 32)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid kernel text start %q: %v", errUsage, flags.Arg(1), err)
		}
		opts.layout.Anchor = uint32(anchor)
	}
	if raw {
		opts.image.Decompress = false
	}
	switch opts.format {
	case "text", "pprof", "otlp":
	default:
		return nil, fmt.Errorf("%w: unknown format %q", errUsage, opts.format)
	}
	if err := opts.layout.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}
	return opts, nil
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func parseAddr(s string, bitSize int) (uint64, error) {
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	return strconv.ParseUint(s, 16, bitSize)
}

func run(opts *options) error {
	img, err := image.Load(opts.imagePath, opts.image)
	if err != nil {
		return err
	}
	defer img.Close()

	start := time.Now()
	table, err := kallsyms.Extract(img.Bytes(), opts.layout)
	if err != nil {
		return err
	}
	slog.Debug("Extraction finished", "duration", time.Since(start))

	if opts.stats {
		if err := exporter.RenderStats(os.Stderr, exporter.Summarize(table, len(img.Bytes()))); err != nil {
			return err
		}
	}
	if opts.compare != "" {
		if err := compare(table.Symbols, opts.compare); err != nil {
			return err
		}
	}

	// Nothing is written until the whole table has been decoded.
	return writeOutput(opts.output, func(w io.Writer) error {
		if len(opts.resolve) > 0 {
			return resolve(w, table.Symbols, opts.resolve)
		}
		switch opts.format {
		case "pprof":
			p, err := pprof.BuildPprofProfile(table.Symbols, opts.imagePath)
			if err != nil {
				return err
			}
			return pprof.WriteProfile(p, w)
		case "otlp":
			data := exporter.BuildOltpProfile(table.Symbols, opts.imagePath, func() uint64 { return uint64(time.Now().UnixNano()) })
			return exporter.WriteOltp(w, exporter.BuildExportRequest(data))
		default:
			return exporter.WriteText(w, table.Symbols)
		}
	})
}

func resolve(w io.Writer, symbols []kallsyms.Symbol, addrs []string) error {
	pcs := make([]uint64, 0, len(addrs))
	for _, a := range addrs {
		pc, err := parseAddr(a, 64)
		if err != nil {
			return fmt.Errorf("invalid address %q: %w", a, err)
		}
		pcs = append(pcs, pc)
	}
	resolved, err := symbolizer.NewKernelSymbolizer(symbolizer.ExtractedKallsyms(symbols)).Symbolize(pcs)
	if err != nil {
		return err
	}
	return exporter.WriteResolved(w, resolved)
}

func compare(symbols []kallsyms.Symbol, path string) error {
	reference, err := symbolizer.KallsymsFile{Path: path}.Load()
	if err != nil {
		return fmt.Errorf("loading reference kallsyms: %w", err)
	}
	extracted, _ := symbolizer.ExtractedKallsyms(symbols).Load()
	c := symbolizer.Compare(extracted, reference)
	for _, name := range c.Missing {
		slog.Warn("Symbol missing from reference kallsyms", "name", name)
	}
	for _, m := range c.Mismatched {
		slog.Warn("Symbol address differs from reference kallsyms", "name", m.Name, "extracted", fmt.Sprintf("0x%08x", m.Extracted), "reference", m.Reference)
	}
	return nil
}

func writeOutput(path string, write func(w io.Writer) error) error {
	if path == "" {
		return write(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}
