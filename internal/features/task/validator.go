package task

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"go-fwpm/internal/common/models"

	"github.com/go-playground/validator/v10"
)

// FieldError is a business-rule violation on one task attribute
type FieldError struct {
	Field   models.FieldName `json:"field"`
	Value   string           `json:"value,omitempty"`
	Message string           `json:"message"`
}

func (e FieldError) Error() string {
	return e.Message
}

// FieldErrors is returned by Normalize and CreateTask when a record is rejected
type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Message
	}
	return strings.Join(msgs, "; ")
}

// RecordValidator turns raw field values into a canonical Task
type RecordValidator struct {
	validate *validator.Validate
	now      func() time.Time
}

func NewRecordValidator() *RecordValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("task_category", func(fl validator.FieldLevel) bool {
		_, ok := models.CanonicalCategory(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("task_status", func(fl validator.FieldLevel) bool {
		_, ok := models.CanonicalStatus(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("task_date", func(fl validator.FieldLevel) bool {
		_, ok := models.ParseDate(fl.Field().String())
		return ok
	})

	return &RecordValidator{validate: v, now: time.Now}
}

// Normalize validates values and returns the canonical task. Enum values are
// canonicalised, dates reformatted and defaulted (dateCreated to today,
// lastUpdated to dateCreated).
func (rv *RecordValidator) Normalize(values map[models.FieldName]string) (Task, FieldErrors) {
	get := func(f models.FieldName) string { return strings.TrimSpace(values[f]) }

	t := Task{
		Category:    get(models.FieldCategory),
		SiteName:    get(models.FieldSiteName),
		NodeID:      get(models.FieldNodeID),
		Implementor: get(models.FieldImplementor),
		Status:      get(models.FieldStatus),
		Comments:    get(models.FieldComments),
		ScriptsPath: get(models.FieldScriptsPath),
		DateCreated: get(models.FieldDateCreated),
		LastUpdated: get(models.FieldLastUpdated),
	}

	if err := rv.validate.Struct(t); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return t, FieldErrors{{Message: err.Error()}}
		}
		out := make(FieldErrors, 0, len(verrs))
		for _, fe := range verrs {
			out = append(out, toFieldError(fe))
		}
		return t, out
	}

	t.Category, _ = models.CanonicalCategory(t.Category)
	t.Status, _ = models.CanonicalStatus(t.Status)
	if t.DateCreated == "" {
		t.DateCreated = rv.now().Format(models.DateLayout)
	} else {
		t.DateCreated, _ = models.ParseDate(t.DateCreated)
	}
	if t.LastUpdated == "" {
		t.LastUpdated = t.DateCreated
	} else {
		t.LastUpdated, _ = models.ParseDate(t.LastUpdated)
	}
	return t, nil
}

func toFieldError(fe validator.FieldError) FieldError {
	field := models.FieldName(fe.Field())
	value := fmt.Sprint(fe.Value())

	var msg string
	switch fe.Tag() {
	case "required":
		msg = fmt.Sprintf("field '%s' is required", field)
	case "task_category":
		msg = fmt.Sprintf("field '%s': %q is not one of %s", field, value, strings.Join(models.Categories, ", "))
	case "task_status":
		msg = fmt.Sprintf("field '%s': %q is not one of %s", field, value, strings.Join(models.Statuses, ", "))
	case "task_date":
		msg = fmt.Sprintf("field '%s': %q is not a valid date (YYYY-MM-DD)", field, value)
	default:
		msg = fmt.Sprintf("field '%s' failed %s", field, fe.Tag())
	}
	return FieldError{Field: field, Value: value, Message: msg}
}
