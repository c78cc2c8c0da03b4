package models

import (
	"strings"
	"time"
)

// FieldName is an attribute of the implementation task schema
type FieldName string

const (
	FieldCategory    FieldName = "category"
	FieldSiteName    FieldName = "siteName"
	FieldNodeID      FieldName = "nodeId"
	FieldImplementor FieldName = "implementor"
	FieldStatus      FieldName = "status"
	FieldComments    FieldName = "comments"
	FieldScriptsPath FieldName = "scriptsPath"
	FieldDateCreated FieldName = "dateCreated"
	FieldLastUpdated FieldName = "lastUpdated"
)

// RequiredFields and OptionalFields are in canonical template order
var (
	RequiredFields = []FieldName{FieldCategory, FieldSiteName, FieldNodeID, FieldImplementor, FieldStatus}
	OptionalFields = []FieldName{FieldComments, FieldScriptsPath, FieldDateCreated, FieldLastUpdated}
)

// TemplateFields returns required then optional field names
func TemplateFields() []FieldName {
	fields := make([]FieldName, 0, len(RequiredFields)+len(OptionalFields))
	fields = append(fields, RequiredFields...)
	return append(fields, OptionalFields...)
}

func IsKnownField(name FieldName) bool {
	for _, f := range TemplateFields() {
		if f == name {
			return true
		}
	}
	return false
}

func IsRequiredField(name FieldName) bool {
	for _, f := range RequiredFields {
		if f == name {
			return true
		}
	}
	return false
}

const (
	CategoryRetunes          = "Retunes"
	CategoryParameters       = "Parameters"
	CategoryENDCAssociations = "ENDC_associations"
	CategoryNRNRAssociations = "nr-nr_associations"
)

const (
	StatusPlanned        = "Planned"
	StatusDone           = "Done"
	StatusDoneWithErrors = "Done_With_Errors"
	StatusOutstanding    = "Outstanding"
)

var (
	Categories = []string{CategoryRetunes, CategoryParameters, CategoryENDCAssociations, CategoryNRNRAssociations}
	Statuses   = []string{StatusPlanned, StatusDone, StatusDoneWithErrors, StatusOutstanding}
)

// legacy spellings still present in exported sheets
var statusAliases = map[string]string{
	"oustanding": StatusOutstanding,
}

// CanonicalCategory matches case-insensitively against Categories
func CanonicalCategory(value string) (string, bool) {
	return canonical(value, Categories, nil)
}

// CanonicalStatus matches case-insensitively against Statuses and known aliases
func CanonicalStatus(value string) (string, bool) {
	return canonical(value, Statuses, statusAliases)
}

func canonical(value string, allowed []string, aliases map[string]string) (string, bool) {
	v := strings.TrimSpace(value)
	for _, a := range allowed {
		if strings.EqualFold(a, v) {
			return a, true
		}
	}
	if alias, ok := aliases[strings.ToLower(v)]; ok {
		return alias, true
	}
	return "", false
}

// DateLayout is the wire and storage format of task dates
const DateLayout = "2006-01-02"

// ParseDate accepts YYYY-MM-DD or RFC3339 and returns the canonical date string
func ParseDate(value string) (string, bool) {
	v := strings.TrimSpace(value)
	if t, err := time.Parse(DateLayout, v); err == nil {
		return t.Format(DateLayout), true
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.Format(DateLayout), true
	}
	return "", false
}
