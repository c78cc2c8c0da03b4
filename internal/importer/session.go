package importer

import (
	"fmt"

	"go-fwpm/internal/common/models"
)

type Stage int

const (
	StageUpload Stage = iota
	StageMapping
	StageValidation
	StageResults
)

func (s Stage) String() string {
	switch s {
	case StageUpload:
		return "upload"
	case StageMapping:
		return "mapping"
	case StageValidation:
		return "validation"
	case StageResults:
		return "results"
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// Pending names the gateway call a session is waiting on
type Pending int

const (
	PendingNone Pending = iota
	PendingValidation
	PendingCommit
)

const (
	validateTransportMessage = "Failed to validate the import data. Please check your file and mappings."
	commitTransportMessage   = "Failed to import the tasks. Please try again later."
	commitUnknownMessage     = "Import failed for unknown reasons."
)

// Session is one import attempt. It is a plain value; Apply derives the next one.
type Session struct {
	Stage      Stage
	Source     *SourceFile
	ImportID   string
	Headers    []string
	SampleRows []Row
	Mapping    Mapping
	Errors     []string
	Preview    []Record
	Success    bool
	Pending    Pending

	// Validated is set when Results was reached through a clean validation
	Validated bool
	// CommitAttempted is set once a commit has answered, successfully or not
	CommitAttempted bool
	Forced          bool
	KnownErrors     []string
	Imported        int
	Inserted        int
	Skipped         []string
}

// NewSession is a fresh session waiting for a file
func NewSession() Session {
	return Session{Stage: StageUpload}
}

// Failed reports a finished commit that did not succeed
func (s Session) Failed() bool {
	return s.Stage == StageResults && s.CommitAttempted && !s.Success
}

// Event is an operator action or a gateway answer
type Event interface {
	isEvent()
}

// SelectFile picks the file to import while in Upload
type SelectFile struct{ File SourceFile }

// Next parses the selected file and moves to Mapping. ImportID identifies
// every commit of this file.
type Next struct{ ImportID string }

// SetField changes one header's assignment; a nil Field unmaps it
type SetField struct {
	Header string
	Field  *models.FieldName
}

// Back returns from Mapping to an empty Upload stage
type Back struct{}

// RequestValidation checks the mapping and, when it is sound, starts the validate call
type RequestValidation struct{}

// ValidationDone carries the validate answer; Err is a transport or service failure
type ValidationDone struct {
	Result *ValidationResult
	Err    error
}

// BackToMapping leaves the validation errors to edit the mapping again
type BackToMapping struct{}

// ForceCommit commits from Validation without validating again. KnownErrors
// are the errors the operator chose to override.
type ForceCommit struct{ KnownErrors []string }

// Confirm commits after a clean validation
type Confirm struct{}

// CommitDone carries the commit answer; Err is a transport or service failure
type CommitDone struct {
	Result *CommitResult
	Err    error
}

// RetryAfterFailure goes back to Mapping after a failed commit, keeping the file
type RetryAfterFailure struct{}

func (SelectFile) isEvent()        {}
func (Next) isEvent()              {}
func (SetField) isEvent()          {}
func (Back) isEvent()              {}
func (RequestValidation) isEvent() {}
func (ValidationDone) isEvent()    {}
func (BackToMapping) isEvent()     {}
func (ForceCommit) isEvent()       {}
func (Confirm) isEvent()           {}
func (CommitDone) isEvent()        {}
func (RetryAfterFailure) isEvent() {}

// Apply returns the session that follows s after ev. The returned session is
// always the one to keep: on ErrBusy or ErrInvalidTransition it is s itself,
// on a *ParseError it is s with the parse error recorded.
func Apply(s Session, ev Event) (Session, error) {
	switch s.Pending {
	case PendingValidation:
		if done, ok := ev.(ValidationDone); ok {
			return validationDone(s, done), nil
		}
		return s, ErrBusy
	case PendingCommit:
		if done, ok := ev.(CommitDone); ok {
			return commitDone(s, done), nil
		}
		return s, ErrBusy
	}

	if s.Success {
		return s, fmt.Errorf("%w: import already completed", ErrInvalidTransition)
	}

	switch e := ev.(type) {
	case SelectFile:
		if s.Stage != StageUpload {
			break
		}
		file := e.File
		next := NewSession()
		next.Source = &file
		return next, nil

	case Next:
		if s.Stage != StageUpload {
			break
		}
		return next(s, e)

	case SetField:
		if s.Stage != StageMapping {
			break
		}
		var (
			m   Mapping
			err error
		)
		if e.Field == nil {
			m, err = s.Mapping.Unassign(e.Header)
		} else {
			m, err = s.Mapping.Assign(e.Header, *e.Field)
		}
		if err != nil {
			return s, err
		}
		s.Mapping = m
		return s, nil

	case Back:
		if s.Stage != StageMapping {
			break
		}
		return NewSession(), nil

	case RequestValidation:
		if s.Stage != StageMapping {
			break
		}
		if s.Source == nil {
			return s, ErrNoFile
		}
		if issues := Check(s.Mapping, models.RequiredFields, models.OptionalFields); len(issues) > 0 {
			s.Stage = StageValidation
			s.Errors = issueMessages(issues)
			s.Preview = nil
			return s, nil
		}
		s.Errors = nil
		s.Pending = PendingValidation
		return s, nil

	case BackToMapping:
		if s.Stage != StageValidation {
			break
		}
		s.Stage = StageMapping
		s.Errors = nil
		return s, nil

	case ForceCommit:
		if s.Stage != StageValidation {
			break
		}
		s.Forced = true
		s.KnownErrors = append([]string(nil), e.KnownErrors...)
		s.Pending = PendingCommit
		return s, nil

	case Confirm:
		if s.Stage != StageResults || !s.Validated || s.CommitAttempted {
			break
		}
		s.Pending = PendingCommit
		return s, nil

	case RetryAfterFailure:
		if !s.Failed() {
			break
		}
		s.Stage = StageMapping
		s.Errors = nil
		s.Preview = nil
		s.Validated = false
		s.CommitAttempted = false
		s.Forced = false
		s.KnownErrors = nil
		s.Skipped = nil
		return s, nil

	case ValidationDone, CommitDone:
		// answers with no call outstanding
	}

	return s, fmt.Errorf("%w: %T in stage %s", ErrInvalidTransition, ev, s.Stage)
}

func next(s Session, e Next) (Session, error) {
	if s.Source == nil {
		return s, ErrNoFile
	}
	preview, err := Parse(s.Source.Text())
	if err != nil {
		s.Errors = []string{err.Error()}
		return s, err
	}

	return Session{
		Stage:      StageMapping,
		Source:     s.Source,
		ImportID:   e.ImportID,
		Headers:    preview.Headers,
		SampleRows: preview.SampleRows,
		Mapping:    Infer(preview.Headers, models.RequiredFields, models.OptionalFields),
	}, nil
}

func validationDone(s Session, done ValidationDone) Session {
	s.Pending = PendingNone
	s.Preview = nil

	switch {
	case done.Err != nil:
		s.Stage = StageValidation
		s.Errors = []string{validateTransportMessage}
	case done.Result == nil:
		s.Stage = StageValidation
		s.Errors = []string{validateTransportMessage}
	case len(done.Result.Errors) > 0:
		s.Stage = StageValidation
		s.Errors = append([]string(nil), done.Result.Errors...)
	default:
		s.Stage = StageResults
		s.Errors = nil
		s.Preview = done.Result.Preview
		s.Validated = true
	}
	return s
}

func commitDone(s Session, done CommitDone) Session {
	s.Pending = PendingNone
	s.Stage = StageResults
	s.CommitAttempted = true

	switch {
	case done.Err != nil:
		s.Success = false
		s.Errors = []string{commitTransportMessage}
	case done.Result == nil:
		s.Success = false
		s.Errors = []string{commitUnknownMessage}
	case done.Result.Success:
		s.Success = true
		s.Errors = nil
		s.Imported = done.Result.Imported
		s.Inserted = done.Result.Inserted
		s.Skipped = done.Result.Skipped
	default:
		s.Success = false
		s.Errors = done.Result.Errors
		if len(s.Errors) == 0 {
			s.Errors = []string{commitUnknownMessage}
		}
	}
	return s
}

func issueMessages(issues []MappingIssue) []string {
	out := make([]string, len(issues))
	for i, issue := range issues {
		out[i] = issue.Error()
	}
	return out
}
