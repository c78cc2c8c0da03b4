package import_feature

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go-fwpm/internal/common/models"
)

var ErrMissingMapping = errors.New("mappings is required")

// DecodeMapping parses the `mappings` form field: a JSON object from header
// to target field, where "" or null leaves the column unmapped.
func DecodeMapping(raw string) (map[string]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrMissingMapping
	}

	var decoded map[string]*string
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, fmt.Errorf("invalid mappings: %w", err)
	}

	mapping := make(map[string]string, len(decoded))
	for header, field := range decoded {
		if field == nil {
			mapping[strings.TrimSpace(header)] = ""
			continue
		}
		mapping[strings.TrimSpace(header)] = strings.TrimSpace(*field)
	}
	return mapping, nil
}

// columnPlan is the resolved mapping: target field to column index
type columnPlan map[models.FieldName]int

// CheckMapping resolves mapping against the file headers. The returned
// messages are file-level errors; the plan is only usable when there are none.
func CheckMapping(headers []string, mapping map[string]string) (columnPlan, []string) {
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		if _, seen := index[h]; !seen {
			index[h] = i
		}
	}

	var errs []string
	plan := columnPlan{}
	sources := map[models.FieldName][]string{}

	for _, header := range orderedHeaders(headers, mapping) {
		field := models.FieldName(mapping[header])
		if field == "" {
			continue
		}
		if !models.IsKnownField(field) {
			errs = append(errs, fmt.Sprintf("Unknown target field '%s' for column '%s'", field, header))
			continue
		}
		col, ok := index[header]
		if !ok {
			errs = append(errs, fmt.Sprintf("Column '%s' not found in file", header))
			continue
		}
		sources[field] = append(sources[field], header)
		plan[field] = col
	}

	for _, field := range models.TemplateFields() {
		if hs := sources[field]; len(hs) > 1 {
			errs = append(errs, fmt.Sprintf("Field '%s' is mapped from multiple columns: '%s'", field, strings.Join(hs, "', '")))
		}
	}
	for _, field := range models.RequiredFields {
		if _, ok := plan[field]; !ok {
			errs = append(errs, fmt.Sprintf("Required field '%s' is not mapped", field))
		}
	}
	return plan, errs
}

// orderedHeaders lists mapped headers in file order, then unknown ones sorted
func orderedHeaders(headers []string, mapping map[string]string) []string {
	out := make([]string, 0, len(mapping))
	seen := map[string]bool{}
	for _, h := range headers {
		if _, ok := mapping[h]; ok && !seen[h] {
			out = append(out, h)
			seen[h] = true
		}
	}
	var rest []string
	for h := range mapping {
		if !seen[h] {
			rest = append(rest, h)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// values extracts the mapped cells of one row; short rows yield ""
func (p columnPlan) values(row Row) map[models.FieldName]string {
	out := make(map[models.FieldName]string, len(p))
	for field, col := range p {
		if col < len(row.Values) {
			out[field] = row.Values[col]
		} else {
			out[field] = ""
		}
	}
	return out
}
