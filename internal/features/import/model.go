package import_feature

import (
	"fmt"
	"time"

	"go-fwpm/internal/features/task"
)

type AttemptStatus string

const (
	AttemptProcessing AttemptStatus = "processing"
	AttemptCompleted  AttemptStatus = "completed"
	AttemptFailed     AttemptStatus = "failed"
)

// ImportAttempt records one commit of an uploaded file. The id is the
// client-generated import id so retries of the same file land on the same
// attempt.
type ImportAttempt struct {
	ID          string            `json:"id" bson:"_id"`
	UserID      string            `json:"user_id,omitempty" bson:"user_id,omitempty"`
	FileName    string            `json:"file_name" bson:"file_name"`
	FilePath    string            `json:"file_path,omitempty" bson:"file_path,omitempty"`
	Mapping     map[string]string `json:"mapping" bson:"mapping"`
	Forced      bool              `json:"forced" bson:"forced"`
	KnownErrors []string          `json:"known_errors,omitempty" bson:"known_errors,omitempty"`
	Status      AttemptStatus     `json:"status" bson:"status"`
	TotalRows   int               `json:"total_rows" bson:"total_rows"`
	Imported    int               `json:"imported" bson:"imported"`
	Inserted    int               `json:"inserted" bson:"inserted"`
	Skipped     []string          `json:"skipped,omitempty" bson:"skipped,omitempty"`
	Errors      []string          `json:"errors,omitempty" bson:"errors,omitempty"`
	CreatedAt   time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at" bson:"updated_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
}

// RowError is a rejected value on one line of an upload
type RowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e RowError) String() string {
	return fmt.Sprintf("Row %d: %s", e.Row, e.Message)
}

// Table is an upload read into memory
type Table struct {
	Headers []string
	Rows    []Row
}

// Row carries its 1-based line in the source file
type Row struct {
	Line   int
	Values []string
}

// Upload is the multipart body shared by validate and commit
type Upload struct {
	FileName string
	Content  []byte
	Mapping  map[string]string
}

type CommitOptions struct {
	ImportID    string
	Force       bool
	KnownErrors []string
	UserID      string
}

type ValidationResult struct {
	Errors    []string
	Preview   []task.Task
	TotalRows int
}

func (r *ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// CommitResult reports a commit. Imported counts the file's valid rows now in
// the task store; Inserted counts only the rows this call wrote, which is
// smaller when a retry finds rows an earlier attempt already stored, and 0 on
// a replay.
type CommitResult struct {
	Success  bool     `json:"success"`
	ImportID string   `json:"import_id"`
	Imported int      `json:"imported"`
	Inserted int      `json:"inserted"`
	Skipped  []string `json:"skipped"`
	Errors   []string `json:"errors"`
	Replayed bool     `json:"replayed"`
}
