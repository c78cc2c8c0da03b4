package cli

import (
	"fmt"
	"strings"

	"go-fwpm/internal/common/models"
	"go-fwpm/internal/importer"
)

// parseMapFlags reads --map values of the form "Header=field". An empty
// field ("Header=") unmaps the column. Later flags win.
func parseMapFlags(values []string) (importer.Overrides, error) {
	out := make(importer.Overrides, len(values))
	for _, v := range values {
		i := strings.LastIndex(v, "=")
		if i <= 0 {
			return nil, fmt.Errorf("invalid --map %q: want Header=field", v)
		}
		header := strings.TrimSpace(v[:i])
		field := strings.TrimSpace(v[i+1:])
		if header == "" {
			return nil, fmt.Errorf("invalid --map %q: empty header", v)
		}
		if field == "" {
			out[header] = nil
			continue
		}
		name := models.FieldName(field)
		if !models.IsKnownField(name) {
			return nil, fmt.Errorf("invalid --map %q: unknown field %q", v, field)
		}
		out[header] = &name
	}
	return out, nil
}

// merge applies o over base
func merge(base, o importer.Overrides) importer.Overrides {
	out := make(importer.Overrides, len(base)+len(o))
	for h, f := range base {
		out[h] = f
	}
	for h, f := range o {
		out[h] = f
	}
	return out
}
