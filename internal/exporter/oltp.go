package exporter

import (
	"io"

	"github.com/VladMinzatu/kallsyms-extract/internal/kallsyms"
	collectorpb "go.opentelemetry.io/proto/otlp/collector/profiles/v1development"
	v1 "go.opentelemetry.io/proto/otlp/common/v1"
	profilespb "go.opentelemetry.io/proto/otlp/profiles/v1development"
	resourceV1 "go.opentelemetry.io/proto/otlp/resource/v1"
	"google.golang.org/protobuf/proto"
)

type NowFunc func() uint64 // produces unix nsec

// BuildOltpProfile encodes the symbol table as an OTLP profile in which every
// symbol is a single-frame sample, so the dictionary doubles as an address to
// name table for collectors.
func BuildOltpProfile(symbols []kallsyms.Symbol, imagePath string, now NowFunc) *profilespb.ProfilesData {
	stringTable := []string{""}
	mappingTable := []*profilespb.Mapping{{}}
	locationTable := []*profilespb.Location{{}}
	functionTable := []*profilespb.Function{{}}
	stackTable := []*profilespb.Stack{{}}

	sampleType := &profilespb.ValueType{
		TypeStrindex: strIndex(&stringTable, "symbols"),
		UnitStrindex: strIndex(&stringTable, "count"),
	}

	mappingIdx := int32(0)
	if len(symbols) > 0 {
		low, high := addrRange(symbols)
		mappingTable = append(mappingTable, &profilespb.Mapping{
			MemoryStart:      uint64(low),
			MemoryLimit:      uint64(high) + 1,
			FilenameStrindex: strIndex(&stringTable, imagePath),
		})
		mappingIdx = int32(len(mappingTable) - 1)
	}

	funcIdx := map[string]int32{}
	samples := make([]*profilespb.Sample, 0, len(symbols))
	for _, sym := range symbols {
		fnIdx, ok := funcIdx[sym.Name]
		if !ok {
			nameIdx := strIndex(&stringTable, sym.Name)
			functionTable = append(functionTable, &profilespb.Function{
				NameStrindex:       nameIdx,
				SystemNameStrindex: nameIdx,
			})
			fnIdx = int32(len(functionTable) - 1)
			funcIdx[sym.Name] = fnIdx
		}

		locationTable = append(locationTable, &profilespb.Location{
			Address:      uint64(sym.Addr),
			MappingIndex: mappingIdx,
			Lines:        []*profilespb.Line{{FunctionIndex: fnIdx, Line: 0}},
		})
		stackTable = append(stackTable, &profilespb.Stack{LocationIndices: []int32{int32(len(locationTable) - 1)}})

		samples = append(samples, &profilespb.Sample{
			StackIndex:       int32(len(stackTable) - 1),
			Values:           []int64{1},
			AttributeIndices: []int32{},
		})
	}

	profile := &profilespb.Profile{
		TimeUnixNano: now(),
		DurationNano: uint64(0),
		SampleType:   sampleType,
		Samples:      samples,
	}

	resourceProfiles := &profilespb.ResourceProfiles{
		Resource: &resourceV1.Resource{},
		ScopeProfiles: []*profilespb.ScopeProfiles{
			{
				Scope: &v1.InstrumentationScope{
					Name:    "kallsyms-extract",
					Version: "v1",
				},
				Profiles: []*profilespb.Profile{profile},
			},
		},
	}

	dictionary := &profilespb.ProfilesDictionary{
		MappingTable:  mappingTable,
		LocationTable: locationTable,
		FunctionTable: functionTable,
		StackTable:    stackTable,
		StringTable:   stringTable,
	}

	return &profilespb.ProfilesData{
		ResourceProfiles: []*profilespb.ResourceProfiles{resourceProfiles},
		Dictionary:       dictionary,
	}
}

// BuildExportRequest wraps data in the request a collector's profiles
// service accepts.
func BuildExportRequest(data *profilespb.ProfilesData) *collectorpb.ExportProfilesServiceRequest {
	return &collectorpb.ExportProfilesServiceRequest{
		ResourceProfiles: data.ResourceProfiles,
		Dictionary:       data.Dictionary,
	}
}

func WriteOltp(w io.Writer, req *collectorpb.ExportProfilesServiceRequest) error {
	b, err := proto.Marshal(req)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

func strIndex(table *[]string, s string) int32 {
	for i, v := range *table {
		if v == s {
			return int32(i)
		}
	}
	*table = append(*table, s)
	return int32(len(*table) - 1)
}

func addrRange(symbols []kallsyms.Symbol) (low, high uint32) {
	low, high = symbols[0].Addr, symbols[0].Addr
	for _, s := range symbols[1:] {
		low = min(low, s.Addr)
		high = max(high, s.Addr)
	}
	return low, high
}
