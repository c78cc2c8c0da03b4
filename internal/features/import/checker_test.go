package import_feature

import (
	"testing"

	"go-fwpm/internal/common/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeMapping(t *testing.T) {
	mapping, err := DecodeMapping(`{"Site Name":"siteName","Notes":"","Extra":null}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Site Name": "siteName", "Notes": "", "Extra": ""}, mapping)

	_, err = DecodeMapping("")
	assert.ErrorIs(t, err, ErrMissingMapping)

	_, err = DecodeMapping(`["siteName"]`)
	assert.Error(t, err)
}

var fullHeaders = []string{"Category", "Site", "Node", "Who", "State", "Notes"}

func fullMapping() map[string]string {
	return map[string]string{
		"Category": "category",
		"Site":     "siteName",
		"Node":     "nodeId",
		"Who":      "implementor",
		"State":    "status",
		"Notes":    "",
	}
}

func TestCheckMapping(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]string)
		errs   []string
	}{
		{
			name:   "complete",
			mutate: func(map[string]string) {},
		},
		{
			name:   "unknown field",
			mutate: func(m map[string]string) { m["Notes"] = "remarks" },
			errs:   []string{"Unknown target field 'remarks' for column 'Notes'"},
		},
		{
			name:   "missing column",
			mutate: func(m map[string]string) { m["Owner"] = "comments" },
			errs:   []string{"Column 'Owner' not found in file"},
		},
		{
			name:   "duplicate field",
			mutate: func(m map[string]string) { m["Notes"] = "siteName" },
			errs:   []string{"Field 'siteName' is mapped from multiple columns: 'Site', 'Notes'"},
		},
		{
			name:   "required unmapped",
			mutate: func(m map[string]string) { m["State"] = "" },
			errs:   []string{"Required field 'status' is not mapped"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := fullMapping()
			tt.mutate(m)

			plan, errs := CheckMapping(fullHeaders, m)
			assert.Equal(t, tt.errs, errs)
			if len(tt.errs) == 0 {
				assert.Equal(t, 1, plan[models.FieldSiteName])
			}
		})
	}
}

func TestColumnPlanValuesPadsShortRows(t *testing.T) {
	plan, errs := CheckMapping(fullHeaders, fullMapping())
	require.Empty(t, errs)

	values := plan.values(Row{Line: 2, Values: []string{"Retunes", "Alpha"}})
	assert.Equal(t, "Alpha", values[models.FieldSiteName])
	assert.Equal(t, "", values[models.FieldStatus])
}
