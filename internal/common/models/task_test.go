package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTemplateFieldsOrder(t *testing.T) {
	fields := TemplateFields()
	assert.Equal(t, []FieldName{
		"category", "siteName", "nodeId", "implementor", "status",
		"comments", "scriptsPath", "dateCreated", "lastUpdated",
	}, fields)

	// callers must not be able to mutate RequiredFields through the result
	fields[0] = "mutated"
	assert.Equal(t, FieldCategory, RequiredFields[0])
}

func TestCanonicalValues(t *testing.T) {
	tests := []struct {
		name  string
		fn    func(string) (string, bool)
		input string
		want  string
		ok    bool
	}{
		{"category exact", CanonicalCategory, "Retunes", CategoryRetunes, true},
		{"category case", CanonicalCategory, " endc_ASSOCIATIONS ", CategoryENDCAssociations, true},
		{"category unknown", CanonicalCategory, "Swaps", "", false},
		{"status case", CanonicalStatus, "done_with_errors", StatusDoneWithErrors, true},
		{"status legacy alias", CanonicalStatus, "Oustanding", StatusOutstanding, true},
		{"status unknown", CanonicalStatus, "Later", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.fn(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDate(t *testing.T) {
	got, ok := ParseDate("2023-04-10")
	assert.True(t, ok)
	assert.Equal(t, "2023-04-10", got)

	got, ok = ParseDate("2023-04-10T15:04:05Z")
	assert.True(t, ok)
	assert.Equal(t, "2023-04-10", got)

	_, ok = ParseDate("10/04/2023")
	assert.False(t, ok)
}

func TestFieldPredicates(t *testing.T) {
	assert.True(t, IsKnownField(FieldScriptsPath))
	assert.False(t, IsKnownField("owner"))
	assert.True(t, IsRequiredField(FieldNodeID))
	assert.False(t, IsRequiredField(FieldComments))
}
