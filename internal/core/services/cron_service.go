package services

import (
	"context"
	"log"
	"time"

	"casa-empenos/internal/pkg/metrics"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultReminderCron fires the expiry reminder every day at 08:30
const DefaultReminderCron = "30 8 * * *"

// CronService runs scheduled background jobs
type CronService struct {
	cron     *cron.Cron
	loans    *LoanService
	notifier *NotificationService
	spec     string
	days     int
	logger   *zap.Logger
}

// NewCronService creates a new cron service; jobs run in location
func NewCronService(loans *LoanService, notifier *NotificationService, spec string, days int, location *time.Location, logger *zap.Logger) *CronService {
	if spec == "" {
		spec = DefaultReminderCron
	}
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CronService{
		cron:     cron.New(cron.WithLocation(location)),
		loans:    loans,
		notifier: notifier,
		spec:     spec,
		days:     days,
		logger:   logger.Named("cron"),
	}
}

// Start registers the jobs and starts the scheduler
func (s *CronService) Start() error {
	_, err := s.cron.AddFunc(s.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		s.RunReminder(ctx)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	log.Printf("⏰ Cron started (reminder: %s)", s.spec)
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *CronService) Stop() {
	<-s.cron.Stop().Done()
	log.Println("🛑 Cron stopped")
}

// RunReminder notifies about active loans expiring soon. It only reads
// loans and returns how many were reported.
func (s *CronService) RunReminder(ctx context.Context) (int, error) {
	loans, err := s.loans.ExpiringLoans(ctx, s.days)
	if err != nil {
		metrics.RecordReminderRun(false)
		return 0, err
	}

	if err := s.notifier.NotifyExpiringLoans(ctx, loans); err != nil {
		metrics.RecordReminderRun(false)
		return 0, err
	}

	metrics.RecordReminderRun(true)
	s.logger.Info("expiry reminder sent", zap.Int("loans", len(loans)), zap.Int("within_days", s.days))
	return len(loans), nil
}
