package importer

import (
	"testing"

	"go-fwpm/internal/common/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func field(f models.FieldName) *models.FieldName { return &f }

func TestInferScenario(t *testing.T) {
	m := Infer([]string{"Site Name", "Node", "Status", "Region"}, models.RequiredFields, models.OptionalFields)

	assert.Equal(t, map[string]string{
		"Site Name": "siteName",
		"Node":      "nodeId",
		"Status":    "status",
		"Region":    "",
	}, m.AsMap())
}

func TestInferTemplateRoundTrip(t *testing.T) {
	var headers []string
	for _, f := range models.TemplateFields() {
		headers = append(headers, string(f))
	}

	m := Infer(headers, models.RequiredFields, models.OptionalFields)
	for _, f := range models.TemplateFields() {
		got, ok := m.Field(string(f))
		require.True(t, ok, f)
		assert.Equal(t, f, got)
	}
	assert.Empty(t, Check(m, models.RequiredFields, models.OptionalFields))
}

func TestInferIsDeterministic(t *testing.T) {
	headers := []string{"CATEGORY", "site_name", "node-id", "Who", "State", "date.created", "", "Notes"}
	first := Infer(headers, models.RequiredFields, models.OptionalFields)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, Infer(headers, models.RequiredFields, models.OptionalFields))
	}
}

func TestInferPrefersRequiredThenDeclaredOrder(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"name", "siteName"},
		{"Implementor Name", "implementor"},
		{"Updated", "lastUpdated"},
		{"Scripts", "scriptsPath"},
		{"", ""},
		{"   ", ""},
		{"Owner", ""},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			m := Infer([]string{tt.header}, models.RequiredFields, models.OptionalFields)
			assert.Equal(t, tt.want, m.AsMap()[tt.header])
		})
	}
}

func TestMappingAssignIsCopy(t *testing.T) {
	m := Infer([]string{"A", "B"}, models.RequiredFields, models.OptionalFields)

	changed, err := m.Assign("A", models.FieldComments)
	require.NoError(t, err)
	_, ok := m.Field("A")
	assert.False(t, ok)
	got, _ := changed.Field("A")
	assert.Equal(t, models.FieldComments, got)

	cleared, err := changed.Unassign("A")
	require.NoError(t, err)
	_, ok = cleared.Field("A")
	assert.False(t, ok)

	_, err = m.Assign("Z", models.FieldComments)
	assert.ErrorIs(t, err, ErrUnknownHeader)
}

func TestCheck(t *testing.T) {
	complete := Mapping{
		{Header: "c", Field: field(models.FieldCategory)},
		{Header: "s", Field: field(models.FieldSiteName)},
		{Header: "n", Field: field(models.FieldNodeID)},
		{Header: "i", Field: field(models.FieldImplementor)},
		{Header: "st", Field: field(models.FieldStatus)},
		{Header: "x"},
	}
	assert.Empty(t, Check(complete, models.RequiredFields, models.OptionalFields))

	ambiguous, _ := complete.Assign("x", models.FieldSiteName)
	issues := Check(ambiguous, models.RequiredFields, models.OptionalFields)
	require.Len(t, issues, 1)
	assert.Equal(t, MappingAmbiguity, issues[0].Kind)
	assert.Equal(t, []string{"s", "x"}, issues[0].Headers)
	assert.Equal(t, "Field 'siteName' is mapped from multiple columns: 's', 'x'", issues[0].Error())

	incomplete, _ := complete.Unassign("st")
	issues = Check(incomplete, models.RequiredFields, models.OptionalFields)
	require.Len(t, issues, 1)
	assert.Equal(t, MappingIncomplete, issues[0].Kind)
	assert.Equal(t, "Required field 'status' is not mapped", issues[0].Error())

	unknown, _ := complete.Assign("x", "owner")
	issues = Check(unknown, models.RequiredFields, models.OptionalFields)
	require.Len(t, issues, 1)
	assert.Equal(t, MappingUnknownField, issues[0].Kind)
}
