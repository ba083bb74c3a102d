package scheduler

import (
	"context"
	"time"

	"income_statement_service/internal/app"
	"income_statement_service/internal/domain/request"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// StaleRequestScheduler periodically expires requests that stayed open past
// the configured cutoff. A cutoff of zero days disables the sweep entirely.
type StaleRequestScheduler struct {
	cronEngine *cron.Cron
	lifecycle  *app.LifecycleService
	requests   request.Repository
	logger     *logrus.Logger
	cronSpec   string
	cutoffDays int
}

func NewStaleRequestScheduler(
	lifecycle *app.LifecycleService,
	requests request.Repository,
	logger *logrus.Logger,
	cronSpec string, // e.g. "0 6 * * *" (6 AM daily)
	cutoffDays int,
) *StaleRequestScheduler {
	return &StaleRequestScheduler{
		cronEngine: cron.New(cron.WithLocation(time.Local)), // Use server's local time for cron
		lifecycle:  lifecycle,
		requests:   requests,
		logger:     logger,
		cronSpec:   cronSpec,
		cutoffDays: cutoffDays,
	}
}

func (s *StaleRequestScheduler) Start() {
	if s.cutoffDays <= 0 {
		s.logger.Info("Stale request sweep disabled, no cutoff configured.")
		return
	}
	s.logger.Info("Starting stale request scheduler...")

	_, err := s.cronEngine.AddFunc(s.cronSpec, func() {
		s.logger.Info("Cron job triggered for stale request sweep.")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		s.sweepStaleRequests(ctx)
	})
	if err != nil {
		s.logger.Fatalf("Could not add stale request sweep cron job: %v", err)
	}

	s.cronEngine.Start()
	s.logger.Info("Stale request scheduler started.")
}

func (s *StaleRequestScheduler) sweepStaleRequests(ctx context.Context) {
	cutoff := time.Now().AddDate(0, 0, -s.cutoffDays)
	stale, err := s.requests.ListOpenCreatedBefore(ctx, cutoff)
	if err != nil {
		s.logger.Errorf("Failed to list stale open requests: %v", err)
		return
	}
	if len(stale) == 0 {
		s.logger.Debug("No stale open requests found.")
		return
	}
	s.logger.Infof("Found %d open requests created before %s, expiring them.", len(stale), cutoff.Format("2006-01-02"))

	for _, req := range stale {
		if err := s.lifecycle.ExpireAndNotify(ctx, req); err != nil {
			// Keep sweeping; the failed one is retried on the next run.
			s.logger.Errorf("Failed to expire stale request %s: %v", req.UUID, err)
		}
	}
}

func (s *StaleRequestScheduler) Stop() {
	s.logger.Info("Stopping stale request scheduler...")
	ctx := s.cronEngine.Stop() // Stops new jobs, waits for running jobs.
	<-ctx.Done()
	s.logger.Info("Stale request scheduler gracefully stopped.")
}
