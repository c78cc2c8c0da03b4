package import_feature

import (
	"context"
	"fmt"
	"time"

	"go-fwpm/internal/config"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// CleanupScheduler purges expired import attempts on a cron schedule
type CleanupScheduler struct {
	service   ImportService
	logger    *zap.Logger
	schedule  string
	retention time.Duration
	scheduler *cron.Cron
	now       func() time.Time
}

func NewCleanupScheduler(service ImportService, logger *zap.Logger, cfg *config.Config) *CleanupScheduler {
	return &CleanupScheduler{
		service:   service,
		logger:    logger,
		schedule:  cfg.ImportCleanupSchedule,
		retention: time.Duration(cfg.ImportRetentionHours) * time.Hour,
		now:       time.Now,
	}
}

func (s *CleanupScheduler) Start() error {
	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid IMPORT_CLEANUP_SCHEDULE %q: %w", s.schedule, err)
	}

	s.scheduler = cron.New()
	if _, err := s.scheduler.AddFunc(s.schedule, func() { s.RunOnce(context.Background()) }); err != nil {
		return fmt.Errorf("failed to add cleanup job: %w", err)
	}
	s.scheduler.Start()
	s.logger.Info("Import cleanup scheduled", zap.String("schedule", s.schedule), zap.Duration("retention", s.retention))
	return nil
}

func (s *CleanupScheduler) Stop() error {
	if s.scheduler != nil {
		ctx := s.scheduler.Stop()
		<-ctx.Done()
	}
	return nil
}

// RunOnce purges attempts older than the retention window
func (s *CleanupScheduler) RunOnce(ctx context.Context) int {
	cutoff := s.now().Add(-s.retention)
	n, err := s.service.PurgeExpired(ctx, cutoff)
	if err != nil {
		s.logger.Error("Import cleanup failed", zap.Error(err))
		return 0
	}
	if n > 0 {
		s.logger.Info("Purged import attempts", zap.Int("count", n), zap.Time("cutoff", cutoff))
	}
	return n
}
