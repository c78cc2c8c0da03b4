package import_feature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReadUploadCSV(t *testing.T) {
	content := "\ufeffcategory, Site Name ,nodeId\n" +
		"Retunes,\"Alpha, North\",N1\n" +
		"\n" +
		",,\n" +
		"Parameters,Beta\n"

	table, err := ReadUpload("tasks.CSV", []byte(content))
	require.NoError(t, err)

	assert.Equal(t, []string{"category", "Site Name", "nodeId"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, 2, table.Rows[0].Line)
	assert.Equal(t, []string{"Retunes", "Alpha, North", "N1"}, table.Rows[0].Values)
	assert.Equal(t, 5, table.Rows[1].Line)
	assert.Equal(t, []string{"Parameters", "Beta"}, table.Rows[1].Values)
}

func TestReadUploadXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	f.SetSheetRow(sheet, "A1", &[]string{"category", "siteName"})
	f.SetSheetRow(sheet, "A2", &[]string{"Retunes", "Alpha"})
	f.SetSheetRow(sheet, "A4", &[]string{"Done", "Beta"})
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	table, err := ReadUpload("tasks.xlsx", buf.Bytes())
	require.NoError(t, err)

	assert.Equal(t, []string{"category", "siteName"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, 2, table.Rows[0].Line)
	assert.Equal(t, 4, table.Rows[1].Line)
}

func TestReadUploadErrors(t *testing.T) {
	_, err := ReadUpload("tasks.txt", []byte("a,b\n1,2"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = ReadUpload("tasks.csv", nil)
	assert.ErrorIs(t, err, ErrNoHeader)

	_, err = ReadUpload("tasks.xlsx", []byte("not a zip"))
	assert.Error(t, err)
}
