package import_feature

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go-fwpm/internal/config"
	"go-fwpm/internal/features/task"
	"go-fwpm/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrInvalidImportID = errors.New("import_id must be a UUID")

// Notifier receives an event after tasks were added by a commit
type Notifier interface {
	Broadcast(event any)
}

type ImportedEvent struct {
	Event    string `json:"event"`
	ImportID string `json:"import_id"`
	Imported int    `json:"imported"`
}

type ImportService interface {
	Validate(ctx context.Context, upload Upload) (*ValidationResult, error)
	Commit(ctx context.Context, upload Upload, opts CommitOptions) (*CommitResult, error)
	GetAttempt(ctx context.Context, id string) (*ImportAttempt, error)
	PurgeExpired(ctx context.Context, cutoff time.Time) (int, error)
}

type ImportServiceImpl struct {
	TaskRepo     task.TaskRepository
	AttemptRepo  AttemptRepository
	Validator    *task.RecordValidator
	Notifier     Notifier
	Metrics      *Metrics
	Logger       *zap.Logger
	SpoolDir     string
	PreviewLimit int
	MaxErrors    int
	// ClaimTimeout is how long a processing attempt blocks its import id
	// before a retry may take it over
	ClaimTimeout time.Duration
}

const defaultClaimTimeout = 10 * time.Minute

func NewImportService(
	taskRepo task.TaskRepository,
	attemptRepo AttemptRepository,
	validator *task.RecordValidator,
	notifier Notifier,
	metrics *Metrics,
	logger *zap.Logger,
	cfg *config.Config,
) ImportService {
	if _, err := os.Stat(cfg.FSPath); os.IsNotExist(err) {
		_ = os.MkdirAll(cfg.FSPath, 0755)
	}
	return &ImportServiceImpl{
		TaskRepo:     taskRepo,
		AttemptRepo:  attemptRepo,
		Validator:    validator,
		Notifier:     notifier,
		Metrics:      metrics,
		Logger:       logger,
		SpoolDir:     cfg.FSPath,
		PreviewLimit: cfg.ImportPreviewLimit,
		MaxErrors:    cfg.ImportMaxErrors,
		ClaimTimeout: time.Duration(cfg.ImportClaimMinutes) * time.Minute,
	}
}

// transformed is an upload run through the mapping and the record rules
type transformed struct {
	tasks     []task.Task
	rowErrors []string
	totalRows int
}

// transform reads and converts an upload. File-level problems come back as
// the second value; ErrUnsupportedFormat is returned as an error.
func (s *ImportServiceImpl) transform(upload Upload) (*transformed, []string, error) {
	table, err := ReadUpload(upload.FileName, upload.Content)
	if errors.Is(err, ErrUnsupportedFormat) {
		return nil, nil, err
	}
	if err != nil {
		return nil, []string{fmt.Sprintf("Error processing file: %v", err)}, nil
	}

	plan, fileErrs := CheckMapping(table.Headers, upload.Mapping)
	if len(fileErrs) > 0 {
		return nil, fileErrs, nil
	}
	if len(table.Rows) == 0 {
		return nil, []string{"File contains no data rows"}, nil
	}

	out := &transformed{totalRows: len(table.Rows)}
	for _, row := range table.Rows {
		t, ferrs := s.Validator.Normalize(plan.values(row))
		if len(ferrs) > 0 {
			for _, fe := range ferrs {
				out.rowErrors = append(out.rowErrors, RowError{Row: row.Line, Field: string(fe.Field), Message: fe.Message}.String())
			}
			continue
		}
		t.ImportRow = row.Line
		out.tasks = append(out.tasks, t)
	}
	return out, nil, nil
}

// Validate never writes to the task store
func (s *ImportServiceImpl) Validate(ctx context.Context, upload Upload) (*ValidationResult, error) {
	data, fileErrs, err := s.transform(upload)
	if err != nil {
		s.Metrics.Validations.WithLabelValues("failed").Inc()
		return nil, err
	}
	if len(fileErrs) > 0 {
		s.Metrics.Validations.WithLabelValues("rejected").Inc()
		return &ValidationResult{Errors: fileErrs}, nil
	}
	if len(data.rowErrors) > 0 {
		s.Metrics.Validations.WithLabelValues("rejected").Inc()
		return &ValidationResult{Errors: capErrors(data.rowErrors, s.MaxErrors), TotalRows: data.totalRows}, nil
	}

	preview := data.tasks
	if s.PreviewLimit > 0 && len(preview) > s.PreviewLimit {
		preview = preview[:s.PreviewLimit]
	}
	s.Metrics.Validations.WithLabelValues("clean").Inc()
	s.Logger.Info("Import validated", zap.String("file", upload.FileName), zap.Int("rows", data.totalRows))
	return &ValidationResult{Preview: preview, TotalRows: data.totalRows}, nil
}

func (s *ImportServiceImpl) Commit(ctx context.Context, upload Upload, opts CommitOptions) (*CommitResult, error) {
	importID := opts.ImportID
	if importID == "" {
		importID = uuid.NewString()
	} else if _, err := uuid.Parse(importID); err != nil {
		return nil, ErrInvalidImportID
	}
	if !supportedFormat(upload.FileName) {
		return nil, ErrUnsupportedFormat
	}
	log := s.Logger.With(zap.String("import_id", importID))

	staleBefore := time.Now().Add(-s.claimTimeout())
	existing, err := s.AttemptRepo.Get(ctx, importID)
	switch {
	case err == nil && existing.Status == AttemptCompleted:
		log.Info("Replaying completed import")
		s.Metrics.Commits.WithLabelValues("replayed").Inc()
		return &CommitResult{
			Success:  true,
			ImportID: importID,
			Imported: existing.Imported,
			Skipped:  nonNil(existing.Skipped),
			Errors:   []string{},
			Replayed: true,
		}, nil
	case err == nil && existing.Status == AttemptProcessing && !existing.UpdatedAt.Before(staleBefore):
		return nil, ErrImportInProgress
	case err == nil && existing.Status == AttemptProcessing:
		log.Warn("Taking over stale import attempt", zap.Time("updated_at", existing.UpdatedAt))
	case err != nil && !errors.Is(err, ErrAttemptNotFound):
		return nil, fmt.Errorf("failed to load import attempt: %w", err)
	}

	attempt := &ImportAttempt{
		ID:          importID,
		UserID:      opts.UserID,
		FileName:    upload.FileName,
		Mapping:     upload.Mapping,
		Forced:      opts.Force,
		KnownErrors: opts.KnownErrors,
	}
	if err := s.AttemptRepo.Claim(ctx, attempt, staleBefore); err != nil {
		return nil, err
	}
	if opts.Force {
		log.Warn("Committing despite validation errors", zap.Strings("known_errors", opts.KnownErrors))
	}

	attempt.FilePath = s.spool(importID, upload, log)

	data, fileErrs, err := s.transform(upload)
	if err != nil {
		fileErrs = []string{err.Error()}
	}
	if len(fileErrs) > 0 {
		return s.fail(ctx, attempt, "rejected", fileErrs, nil, log), nil
	}

	attempt.TotalRows = data.totalRows
	if len(data.tasks) == 0 {
		return s.fail(ctx, attempt, "rejected", capErrors(data.rowErrors, s.MaxErrors), nil, log), nil
	}

	for i := range data.tasks {
		data.tasks[i].ImportID = importID
	}
	inserted, err := s.TaskRepo.InsertBatch(ctx, data.tasks)
	if err != nil {
		log.Error("Failed to store tasks", zap.Error(err))
		return s.fail(ctx, attempt, "failed", []string{fmt.Sprintf("failed to store tasks: %v", err)}, data.rowErrors, log), nil
	}

	now := time.Now()
	attempt.Status = AttemptCompleted
	attempt.Imported = len(data.tasks)
	attempt.Inserted = inserted
	attempt.Skipped = data.rowErrors
	attempt.CompletedAt = &now
	if err := s.AttemptRepo.Update(ctx, attempt); err != nil {
		log.Error("Failed to update import attempt", zap.Error(err))
	}

	s.Metrics.Commits.WithLabelValues("success").Inc()
	s.Metrics.RowsImported.Add(float64(inserted))
	s.Metrics.RowsSkipped.Add(float64(len(data.rowErrors)))
	log.Info("Import committed",
		zap.Int("imported", attempt.Imported),
		zap.Int("inserted", inserted),
		zap.Int("skipped", len(data.rowErrors)),
	)

	if s.Notifier != nil {
		s.Notifier.Broadcast(ImportedEvent{Event: "tasks.imported", ImportID: importID, Imported: attempt.Imported})
	}

	return &CommitResult{
		Success:  true,
		ImportID: importID,
		Imported: attempt.Imported,
		Inserted: inserted,
		Skipped:  nonNil(data.rowErrors),
		Errors:   []string{},
	}, nil
}

func (s *ImportServiceImpl) claimTimeout() time.Duration {
	if s.ClaimTimeout > 0 {
		return s.ClaimTimeout
	}
	return defaultClaimTimeout
}

func (s *ImportServiceImpl) fail(ctx context.Context, attempt *ImportAttempt, outcome string, errs, skipped []string, log *zap.Logger) *CommitResult {
	attempt.Status = AttemptFailed
	attempt.Errors = errs
	attempt.Skipped = skipped
	if err := s.AttemptRepo.Update(ctx, attempt); err != nil {
		log.Error("Failed to update import attempt", zap.Error(err))
	}
	s.Metrics.Commits.WithLabelValues(outcome).Inc()
	log.Warn("Import not committed", zap.Strings("errors", errs))

	return &CommitResult{
		Success:  false,
		ImportID: attempt.ID,
		Skipped:  nonNil(skipped),
		Errors:   errs,
	}
}

// spool keeps the raw upload next to its attempt; failures only cost the audit copy
func (s *ImportServiceImpl) spool(importID string, upload Upload, log *zap.Logger) string {
	if s.SpoolDir == "" {
		return ""
	}
	path := filepath.Join(s.SpoolDir, importID+"_"+utils.SafeFileName(upload.FileName))
	if err := os.WriteFile(path, upload.Content, 0644); err != nil {
		log.Warn("Failed to spool upload", zap.String("path", path), zap.Error(err))
		return ""
	}
	return path
}

func (s *ImportServiceImpl) GetAttempt(ctx context.Context, id string) (*ImportAttempt, error) {
	return s.AttemptRepo.Get(ctx, id)
}

// PurgeExpired deletes finished attempts created before cutoff with their spooled files
func (s *ImportServiceImpl) PurgeExpired(ctx context.Context, cutoff time.Time) (int, error) {
	attempts, err := s.AttemptRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	for _, a := range attempts {
		if a.FilePath == "" {
			continue
		}
		if err := os.Remove(a.FilePath); err != nil && !os.IsNotExist(err) {
			s.Logger.Warn("Failed to remove spooled upload", zap.String("path", a.FilePath), zap.Error(err))
		}
	}
	return len(attempts), nil
}

func capErrors(errs []string, max int) []string {
	if max <= 0 || len(errs) <= max {
		return errs
	}
	capped := append([]string{}, errs[:max]...)
	return append(capped, fmt.Sprintf("... and %d more errors", len(errs)-max))
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
