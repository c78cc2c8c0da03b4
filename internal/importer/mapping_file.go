package importer

import (
	"fmt"
	"os"
	"sort"

	"go-fwpm/internal/common/models"

	"gopkg.in/yaml.v3"
)

// Overrides are operator corrections applied over the inferred mapping.
// A nil field unmaps the header.
type Overrides map[string]*models.FieldName

type mappingFile struct {
	Mappings map[string]*string `yaml:"mappings"`
}

// LoadMappingFile reads
//
//	mappings:
//	  "Site Name": siteName
//	  "Remarks": ""   # or ~ to leave unmapped
func LoadMappingFile(path string) (Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mapping file: %w", err)
	}
	return ParseMappingFile(data)
}

func ParseMappingFile(data []byte) (Overrides, error) {
	var f mappingFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse mapping file: %w", err)
	}

	out := make(Overrides, len(f.Mappings))
	for header, field := range f.Mappings {
		if field == nil || *field == "" {
			out[header] = nil
			continue
		}
		name := models.FieldName(*field)
		if !models.IsKnownField(name) {
			return nil, fmt.Errorf("mapping file: unknown field %q for column %q", *field, header)
		}
		out[header] = &name
	}
	return out, nil
}

// Events turns the overrides into SetField events in header order
func (o Overrides) Events() []SetField {
	headers := make([]string, 0, len(o))
	for h := range o {
		headers = append(headers, h)
	}
	sort.Strings(headers)

	events := make([]SetField, len(headers))
	for i, h := range headers {
		events[i] = SetField{Header: h, Field: o[h]}
	}
	return events
}
