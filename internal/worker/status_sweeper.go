package worker

import (
	"context"
	"time"

	"github.com/carelink/telehealth-api/internal/repository"
	"github.com/carelink/telehealth-api/pkg/logger"
)

type StatusSweeperConfig struct {
	PollInterval time.Duration
}

// StatusSweeper advances appointments along the wall clock: scheduled
// appointments whose window has started become in_progress, and any
// non-cancelled appointment whose window has passed becomes completed.
// Transitions lag real time by at most one poll interval.
type StatusSweeper struct {
	repo   repository.AppointmentRepository
	config StatusSweeperConfig
	logger *logger.Logger
}

func NewStatusSweeper(repo repository.AppointmentRepository, config StatusSweeperConfig, logger *logger.Logger) *StatusSweeper {
	if config.PollInterval <= 0 {
		panic("PollInterval must be greater than 0")
	}

	return &StatusSweeper{
		repo:   repo,
		config: config,
		logger: logger,
	}
}

func (s *StatusSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	s.logger.Info("Starting status sweeper")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Shutting down status sweeper")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *StatusSweeper) sweep(ctx context.Context) {
	now := time.Now().UTC()

	// Completion runs first so an appointment that both started and
	// ended since the last sweep goes straight to completed.
	completed, err := s.repo.MarkCompletedDue(ctx, now)
	if err != nil {
		s.logger.Error(err, "Failed to complete due appointments")
	} else if completed > 0 {
		s.logger.Info("Completed appointments", "count", completed)
	}

	started, err := s.repo.MarkInProgressDue(ctx, now)
	if err != nil {
		s.logger.Error(err, "Failed to start due appointments")
	} else if started > 0 {
		s.logger.Info("Started appointments", "count", started)
	}
}
