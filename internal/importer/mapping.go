package importer

import (
	"fmt"
	"strings"

	"go-fwpm/internal/common/models"
)

// Assignment maps one header to a field, or leaves it unmapped when Field is nil
type Assignment struct {
	Header string
	Field  *models.FieldName
}

// Mapping keeps one assignment per header in file order
type Mapping []Assignment

func (m Mapping) Clone() Mapping {
	if m == nil {
		return nil
	}
	out := make(Mapping, len(m))
	for i, a := range m {
		out[i] = Assignment{Header: a.Header}
		if a.Field != nil {
			f := *a.Field
			out[i].Field = &f
		}
	}
	return out
}

func (m Mapping) Headers() []string {
	out := make([]string, len(m))
	for i, a := range m {
		out[i] = a.Header
	}
	return out
}

// Field returns the field assigned to header
func (m Mapping) Field(header string) (models.FieldName, bool) {
	for _, a := range m {
		if a.Header == header {
			if a.Field == nil {
				return "", false
			}
			return *a.Field, true
		}
	}
	return "", false
}

// Assign returns a copy of m with header mapped to field
func (m Mapping) Assign(header string, field models.FieldName) (Mapping, error) {
	return m.set(header, &field)
}

// Unassign returns a copy of m with header unmapped
func (m Mapping) Unassign(header string) (Mapping, error) {
	return m.set(header, nil)
}

func (m Mapping) set(header string, field *models.FieldName) (Mapping, error) {
	out := m.Clone()
	for i := range out {
		if out[i].Header == header {
			out[i].Field = field
			return out, nil
		}
	}
	return m, fmt.Errorf("%w: %q", ErrUnknownHeader, header)
}

// AsMap is the wire form: header to field name, "" for unmapped
func (m Mapping) AsMap() map[string]string {
	out := make(map[string]string, len(m))
	for _, a := range m {
		if _, seen := out[a.Header]; seen {
			continue
		}
		if a.Field == nil {
			out[a.Header] = ""
		} else {
			out[a.Header] = string(*a.Field)
		}
	}
	return out
}

// Infer proposes a field for every header. A header matches a field when,
// after normalising both, either contains the other. Required fields are
// tried before optional ones and the first match wins.
func Infer(headers []string, required, optional []models.FieldName) Mapping {
	m := make(Mapping, len(headers))
	for i, h := range headers {
		m[i] = Assignment{Header: h}
		if f, ok := firstMatch(h, required); ok {
			m[i].Field = &f
		} else if f, ok := firstMatch(h, optional); ok {
			m[i].Field = &f
		}
	}
	return m
}

func firstMatch(header string, fields []models.FieldName) (models.FieldName, bool) {
	nh := normalize(header)
	if nh == "" {
		return "", false
	}
	for _, f := range fields {
		nf := normalize(string(f))
		if strings.Contains(nh, nf) || strings.Contains(nf, nh) {
			return f, true
		}
	}
	return "", false
}

var normalizer = strings.NewReplacer(" ", "", "_", "", "-", "", ".", "")

func normalize(s string) string {
	return normalizer.Replace(strings.ToLower(strings.TrimSpace(s)))
}

type IssueKind int

const (
	MappingAmbiguity IssueKind = iota + 1
	MappingIncomplete
	MappingUnknownField
)

func (k IssueKind) String() string {
	switch k {
	case MappingAmbiguity:
		return "ambiguous"
	case MappingIncomplete:
		return "incomplete"
	case MappingUnknownField:
		return "unknown field"
	}
	return "unknown"
}

// MappingIssue is a problem Check finds before anything is sent to the service
type MappingIssue struct {
	Kind    IssueKind
	Field   models.FieldName
	Headers []string
}

func (i MappingIssue) Error() string {
	switch i.Kind {
	case MappingAmbiguity:
		return fmt.Sprintf("Field '%s' is mapped from multiple columns: '%s'", i.Field, strings.Join(i.Headers, "', '"))
	case MappingIncomplete:
		return fmt.Sprintf("Required field '%s' is not mapped", i.Field)
	case MappingUnknownField:
		return fmt.Sprintf("Unknown target field '%s' for column '%s'", i.Field, strings.Join(i.Headers, "', '"))
	}
	return "invalid mapping"
}

// Check reports fields mapped from several headers, required fields left
// unmapped and assignments to fields outside the schema
func Check(m Mapping, required, optional []models.FieldName) []MappingIssue {
	known := make(map[models.FieldName]bool, len(required)+len(optional))
	for _, f := range required {
		known[f] = true
	}
	for _, f := range optional {
		known[f] = true
	}

	var issues []MappingIssue
	sources := map[models.FieldName][]string{}
	for _, a := range m {
		if a.Field == nil {
			continue
		}
		if !known[*a.Field] {
			issues = append(issues, MappingIssue{Kind: MappingUnknownField, Field: *a.Field, Headers: []string{a.Header}})
			continue
		}
		sources[*a.Field] = append(sources[*a.Field], a.Header)
	}

	for _, f := range append(append([]models.FieldName{}, required...), optional...) {
		if hs := sources[f]; len(hs) > 1 {
			issues = append(issues, MappingIssue{Kind: MappingAmbiguity, Field: f, Headers: hs})
		}
	}
	for _, f := range required {
		if len(sources[f]) == 0 {
			issues = append(issues, MappingIssue{Kind: MappingIncomplete, Field: f})
		}
	}
	return issues
}
