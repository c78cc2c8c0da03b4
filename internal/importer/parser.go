package importer

import (
	"strings"
)

const (
	Separator     = ","
	MaxSampleRows = 5
)

// Row is one sample line keyed by header, in header order
type Row struct {
	Headers []string
	Values  []string
}

// Get returns the value under the first column named header
func (r Row) Get(header string) string {
	for i, h := range r.Headers {
		if h == header {
			return r.Values[i]
		}
	}
	return ""
}

func (r Row) Map() map[string]string {
	m := make(map[string]string, len(r.Headers))
	for i := len(r.Headers) - 1; i >= 0; i-- {
		m[r.Headers[i]] = r.Values[i]
	}
	return m
}

type Preview struct {
	Headers    []string
	SampleRows []Row
}

// Parse splits raw text into headers and up to MaxSampleRows sample rows.
// Quoted fields are not understood; a comma always separates.
func Parse(raw string) (*Preview, error) {
	raw = strings.TrimPrefix(raw, "\ufeff")
	lines := strings.Split(raw, "\n")
	if n := len(lines); n > 1 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	if len(lines) < 2 {
		return nil, &ParseError{Reason: "empty or invalid"}
	}

	headers := splitLine(lines[0])
	preview := &Preview{Headers: headers, SampleRows: []Row{}}

	for _, line := range lines[1:] {
		if len(preview.SampleRows) == MaxSampleRows {
			break
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := splitLine(line)
		values := make([]string, len(headers))
		copy(values, fields)
		preview.SampleRows = append(preview.SampleRows, Row{Headers: headers, Values: values})
	}
	return preview, nil
}

func splitLine(line string) []string {
	parts := strings.Split(strings.TrimSuffix(line, "\r"), Separator)
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
