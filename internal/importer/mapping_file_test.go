package importer

import (
	"os"
	"path/filepath"
	"testing"

	"go-fwpm/internal/common/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMappingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapping.yaml")
	content := `mappings:
  "Site Name": siteName
  Remarks: ""
  Extra: ~
  Who: implementor
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	overrides, err := LoadMappingFile(path)
	require.NoError(t, err)
	require.Len(t, overrides, 4)
	assert.Nil(t, overrides["Remarks"])
	assert.Nil(t, overrides["Extra"])
	assert.Equal(t, models.FieldSiteName, *overrides["Site Name"])

	events := overrides.Events()
	headers := make([]string, len(events))
	for i, ev := range events {
		headers[i] = ev.Header
	}
	assert.Equal(t, []string{"Extra", "Remarks", "Site Name", "Who"}, headers)
}

func TestParseMappingFileRejectsUnknownField(t *testing.T) {
	_, err := ParseMappingFile([]byte("mappings:\n  Owner: owner\n"))
	assert.ErrorContains(t, err, `unknown field "owner"`)

	_, err = ParseMappingFile([]byte("mappings: [1, 2"))
	assert.Error(t, err)
}

func TestLoadMappingFileMissing(t *testing.T) {
	_, err := LoadMappingFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
