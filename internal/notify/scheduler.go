package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/adampos/medialender/internal/repository"
)

// Scheduler runs the reminder job once a day at a fixed local hour.
type Scheduler struct {
	loans  repository.LoanRepository
	mailer Mailer
	logger *slog.Logger
	hour   int // 0-23, local time
	now    func() time.Time
}

func NewScheduler(loans repository.LoanRepository, mailer Mailer, logger *slog.Logger, hour int) *Scheduler {
	if hour < 0 || hour > 23 {
		hour = 8
	}
	return &Scheduler{
		loans:  loans,
		mailer: mailer,
		logger: logger,
		hour:   hour,
		now:    time.Now,
	}
}

// Run blocks until ctx is cancelled, firing the reminder job at the
// configured hour each day. Call it in its own goroutine.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		wait := time.Until(s.nextRun())
		s.logger.Info("reminder job scheduled", slog.Duration("in", wait))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if err := s.RunOnce(ctx); err != nil {
			s.logger.Error("reminder job failed", slog.String("error", err.Error()))
		}
	}
}

// nextRun is the next occurrence of the configured hour, strictly in the
// future.
func (s *Scheduler) nextRun() time.Time {
	now := s.now()
	next := time.Date(now.Year(), now.Month(), now.Day(), s.hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// RunOnce sends a reminder for every loan due today or earlier that has not
// been returned. Individual send failures are logged and skipped; an open
// loan is simply reminded again on the next daily run.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	today := s.now()
	reminders, err := s.loans.ListDueReminders(ctx, today)
	if err != nil {
		return fmt.Errorf("collecting due reminders: %w", err)
	}

	sent := 0
	for _, r := range reminders {
		if r.PersonEmail == "" {
			continue
		}
		subject := fmt.Sprintf("Reminder: please return %q", r.MediaTitle)
		body := fmt.Sprintf(
			"Hello %s,\n\nthis is a friendly reminder that %q you borrowed from %s is due for return.\n\nThanks!\n",
			r.PersonFirstName, r.MediaTitle, r.OwnerUsername)

		if err := s.mailer.Send(r.PersonEmail, subject, body); err != nil {
			s.logger.Error("failed to send reminder",
				slog.String("loanID", r.LoanID),
				slog.String("error", err.Error()),
			)
			continue
		}
		sent++
	}

	s.logger.Info("reminder job done",
		slog.Int("due", len(reminders)),
		slog.Int("sent", sent),
	)
	return nil
}
