package task

import (
	"time"

	"go-fwpm/internal/common/models"
)

// Task is one network implementation task
type Task struct {
	ID          string    `json:"id" bson:"_id,omitempty"`
	Category    string    `json:"category" bson:"category" validate:"required,task_category"`
	SiteName    string    `json:"siteName" bson:"site_name" validate:"required"`
	NodeID      string    `json:"nodeId" bson:"node_id" validate:"required"`
	Implementor string    `json:"implementor" bson:"implementor" validate:"required"`
	Status      string    `json:"status" bson:"status" validate:"required,task_status"`
	Comments    string    `json:"comments,omitempty" bson:"comments,omitempty"`
	ScriptsPath string    `json:"scriptsPath,omitempty" bson:"scripts_path,omitempty"`
	DateCreated string    `json:"dateCreated" bson:"date_created" validate:"omitempty,task_date"`
	LastUpdated string    `json:"lastUpdated" bson:"last_updated" validate:"omitempty,task_date"`
	ImportID    string    `json:"importId,omitempty" bson:"import_id,omitempty"`
	ImportRow   int       `json:"importRow,omitempty" bson:"import_row,omitempty"`
	CreatedAt   time.Time `json:"createdAt" bson:"created_at"`
}

// Value returns the task attribute named by field
func (t Task) Value(field models.FieldName) string {
	switch field {
	case models.FieldCategory:
		return t.Category
	case models.FieldSiteName:
		return t.SiteName
	case models.FieldNodeID:
		return t.NodeID
	case models.FieldImplementor:
		return t.Implementor
	case models.FieldStatus:
		return t.Status
	case models.FieldComments:
		return t.Comments
	case models.FieldScriptsPath:
		return t.ScriptsPath
	case models.FieldDateCreated:
		return t.DateCreated
	case models.FieldLastUpdated:
		return t.LastUpdated
	}
	return ""
}

type TaskFilter struct {
	Category  string
	Status    string
	Search    string
	SortBy    string
	SortOrder string
	Limit     int64
}

type TaskSummary struct {
	Total     int64            `json:"total"`
	Completed int64            `json:"completed"`
	Errors    int64            `json:"errors"`
	Pending   int64            `json:"pending"`
	ByStatus  map[string]int64 `json:"by_status"`
}

// Export is a rendered task listing ready to be sent as an attachment
type Export struct {
	Data        []byte
	ContentType string
	FileName    string
}

// sortColumns maps accepted sort keys to storage column names
var sortColumns = map[string]string{
	"category":    "category",
	"siteName":    "site_name",
	"nodeId":      "node_id",
	"implementor": "implementor",
	"status":      "status",
	"dateCreated": "date_created",
	"lastUpdated": "last_updated",
	"createdAt":   "created_at",
}

func sortColumn(sortBy string) string {
	if col, ok := sortColumns[sortBy]; ok {
		return col
	}
	return "created_at"
}
