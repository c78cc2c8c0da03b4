package importer

import (
	"context"
	"sync"
	"time"

	"go-fwpm/internal/common/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Workflow owns the single open import session and runs its gateway calls
type Workflow struct {
	mu          sync.Mutex
	session     *Session
	generation  uint64
	gateway     Gateway
	lister      TaskLister
	logger      *zap.Logger
	callTimeout time.Duration
	newID       func() string
}

type Option func(*Workflow)

func WithLogger(logger *zap.Logger) Option {
	return func(w *Workflow) { w.logger = logger }
}

// WithCallTimeout bounds every validate and commit call
func WithCallTimeout(d time.Duration) Option {
	return func(w *Workflow) { w.callTimeout = d }
}

func WithIDGenerator(fn func() string) Option {
	return func(w *Workflow) { w.newID = fn }
}

func NewWorkflow(gateway Gateway, lister TaskLister, opts ...Option) *Workflow {
	w := &Workflow{
		gateway:     gateway,
		lister:      lister,
		logger:      zap.NewNop(),
		callTimeout: 60 * time.Second,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Open starts a new session, discarding any previous one
func (w *Workflow) Open() Session {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := NewSession()
	w.session = &s
	w.generation++
	return s
}

// Session returns the open session
func (w *Workflow) Session() (Session, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.session == nil {
		return Session{}, false
	}
	return *w.session, true
}

func (w *Workflow) SelectFile(file SourceFile) (Session, error) {
	return w.apply(SelectFile{File: file})
}

func (w *Workflow) Next() (Session, error) {
	return w.apply(Next{ImportID: w.newID()})
}

func (w *Workflow) SetField(header string, field *models.FieldName) (Session, error) {
	return w.apply(SetField{Header: header, Field: field})
}

func (w *Workflow) Back() (Session, error) {
	return w.apply(Back{})
}

func (w *Workflow) BackToMapping() (Session, error) {
	return w.apply(BackToMapping{})
}

func (w *Workflow) RetryAfterFailure() (Session, error) {
	return w.apply(RetryAfterFailure{})
}

// Validate checks the mapping locally and, when it is sound, asks the service
func (w *Workflow) Validate(ctx context.Context) (Session, error) {
	s, gen, err := w.begin(RequestValidation{})
	if err != nil || s.Pending != PendingValidation {
		return s, err
	}

	callCtx, cancel := context.WithTimeout(ctx, w.callTimeout)
	defer cancel()

	res, callErr := w.gateway.Validate(callCtx, *s.Source, s.Mapping)
	if callErr != nil {
		w.logger.Warn("Validate call failed", zap.String("import_id", s.ImportID), zap.Error(callErr))
	}
	return w.finish(gen, ValidationDone{Result: res, Err: callErr})
}

// Confirm commits after a clean validation
func (w *Workflow) Confirm(ctx context.Context) (Session, error) {
	return w.commit(ctx, Confirm{})
}

// ForceCommit commits despite the errors currently shown, which are recorded
// with the attempt
func (w *Workflow) ForceCommit(ctx context.Context) (Session, error) {
	s, ok := w.Session()
	if !ok {
		return Session{}, ErrNoSession
	}
	return w.commit(ctx, ForceCommit{KnownErrors: s.Errors})
}

func (w *Workflow) commit(ctx context.Context, ev Event) (Session, error) {
	s, gen, err := w.begin(ev)
	if err != nil {
		return s, err
	}

	log := w.logger.With(zap.String("import_id", s.ImportID))
	if s.Forced {
		log.Warn("Committing without a clean validation", zap.Strings("known_errors", s.KnownErrors))
	}

	callCtx, cancel := context.WithTimeout(ctx, w.callTimeout)
	defer cancel()

	res, callErr := w.gateway.Commit(callCtx, *s.Source, s.Mapping, CommitRequest{
		ImportID:    s.ImportID,
		Force:       s.Forced,
		KnownErrors: s.KnownErrors,
	})
	switch {
	case callErr != nil:
		log.Error("Commit call failed", zap.Error(callErr))
	case res == nil:
		log.Error("Commit call returned no result")
	case res.Success:
		log.Info("Import committed", zap.Int("imported", res.Imported), zap.Bool("replayed", res.Replayed))
	default:
		log.Warn("Import rejected", zap.Strings("errors", res.Errors))
	}
	return w.finish(gen, CommitDone{Result: res, Err: callErr})
}

// Close discards the session. After a successful import the task listing
// is refreshed and returned; a failed refresh does not keep the session.
func (w *Workflow) Close(ctx context.Context) ([]Record, error) {
	w.mu.Lock()
	s := w.session
	w.session = nil
	w.generation++
	w.mu.Unlock()

	if s == nil || !s.Success || w.lister == nil {
		return nil, nil
	}
	tasks, err := w.lister.ListTasks(ctx, TaskQuery{})
	if err != nil {
		w.logger.Warn("Task refresh after import failed", zap.Error(err))
		return nil, err
	}
	return tasks, nil
}

func (w *Workflow) apply(ev Event) (Session, error) {
	s, _, err := w.begin(ev)
	return s, err
}

func (w *Workflow) begin(ev Event) (Session, uint64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.session == nil {
		return Session{}, 0, ErrNoSession
	}
	next, err := Apply(*w.session, ev)
	*w.session = next
	return next, w.generation, err
}

// finish applies a gateway answer unless the session was closed or replaced meanwhile
func (w *Workflow) finish(gen uint64, ev Event) (Session, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.session == nil || w.generation != gen {
		return Session{}, ErrNoSession
	}
	next, err := Apply(*w.session, ev)
	*w.session = next
	return next, err
}
