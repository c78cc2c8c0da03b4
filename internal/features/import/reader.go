package import_feature

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	ErrUnsupportedFormat = errors.New("file must be a CSV or XLSX")
	ErrNoHeader          = errors.New("file has no header row")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func supportedFormat(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".xlsx":
		return true
	}
	return false
}

// ReadUpload loads a .csv or .xlsx upload. Blank rows are dropped; every
// remaining row keeps the line it came from.
func ReadUpload(filename string, content []byte) (*Table, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return readCSV(content)
	case ".xlsx":
		return readExcel(content)
	default:
		return nil, ErrUnsupportedFormat
	}
}

func readCSV(content []byte) (*Table, error) {
	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(content, utf8BOM)))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var table *Table
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse CSV: %w", err)
		}
		if table == nil {
			table = &Table{Headers: trimAll(rec)}
			continue
		}
		if isBlank(rec) {
			continue
		}
		line, _ := reader.FieldPos(0)
		table.Rows = append(table.Rows, Row{Line: line, Values: rec})
	}

	if table == nil {
		return nil, ErrNoHeader
	}
	return table, nil
}

func readExcel(content []byte) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoHeader
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || isBlank(rows[0]) {
		return nil, ErrNoHeader
	}

	table := &Table{Headers: trimAll(rows[0])}
	for i, rec := range rows[1:] {
		if isBlank(rec) {
			continue
		}
		table.Rows = append(table.Rows, Row{Line: i + 2, Values: rec})
	}
	return table, nil
}

func trimAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.TrimSpace(v)
	}
	return out
}

func isBlank(values []string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
