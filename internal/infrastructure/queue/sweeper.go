package queue

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"

	"github.com/auragate/parking-backend/internal/core/ports"
)

// OrphanSweeper periodically removes stale GUEST users that own no session.
// Such records appear when the process dies between guest creation and
// session creation at entry, or when a scheduled cleanup task is dropped.
type OrphanSweeper struct {
	users     ports.UserRepository
	interval  time.Duration
	minAge    time.Duration
	scheduler *gocron.Scheduler
	log       zerolog.Logger
}

func NewOrphanSweeper(users ports.UserRepository, interval, minAge time.Duration, log zerolog.Logger) *OrphanSweeper {
	return &OrphanSweeper{
		users:     users,
		interval:  interval,
		minAge:    minAge,
		scheduler: gocron.NewScheduler(time.UTC),
		log:       log,
	}
}

// Start registers the sweep job and runs the scheduler in the background.
func (s *OrphanSweeper) Start(ctx context.Context) error {
	_, err := s.scheduler.Every(s.interval).Do(func() {
		s.sweep(ctx)
	})
	if err != nil {
		return err
	}
	s.scheduler.StartAsync()
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (s *OrphanSweeper) Stop() {
	s.scheduler.Stop()
}

func (s *OrphanSweeper) sweep(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.minAge).Unix()
	removed, err := s.users.DeleteStaleGuests(ctx, cutoff)
	if err != nil {
		s.log.Error().Err(err).Msg("orphaned guest sweep failed")
		return
	}
	if removed > 0 {
		s.log.Info().Int64("removed", removed).Msg("orphaned guests removed")
	}
}
