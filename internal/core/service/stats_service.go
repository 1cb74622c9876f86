package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/auragate/parking-backend/internal/core/domain"
	"github.com/auragate/parking-backend/internal/core/ports"
)

// StatsService computes the live occupancy view. Occupancy is derived by
// scanning IN sessions and classifying each by its owner's vehicle class;
// the persisted guest counters are a separate ledger.
type StatsService struct {
	sessions  ports.SessionRepository
	users     ports.UserRepository
	carSlots  int
	bikeSlots int
	logger    zerolog.Logger
}

func NewStatsService(sessions ports.SessionRepository, users ports.UserRepository, carSlots, bikeSlots int, logger zerolog.Logger) *StatsService {
	return &StatsService{
		sessions:  sessions,
		users:     users,
		carSlots:  carSlots,
		bikeSlots: bikeSlots,
		logger:    logger,
	}
}

// CurrentStats counts currently-IN sessions per owner vehicle class against
// the fixed capacities. Sessions whose owner is missing or untyped are
// skipped. The scan has no side effects, so repeated calls with no
// intervening mutation return identical results.
func (s *StatsService) CurrentStats(ctx context.Context) (*domain.ParkingStats, error) {
	active, err := s.sessions.FindActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("current stats: %w", err)
	}

	carIn, bikeIn := 0, 0
	for _, session := range active {
		owner, findErr := s.users.FindByID(ctx, session.UserID)
		if findErr != nil {
			s.logger.Debug().Str("session_id", session.ID).Msg("stats: owner not found, skipping")
			continue
		}
		switch owner.VehicleType {
		case domain.VehicleCar:
			carIn++
		case domain.VehicleBike:
			bikeIn++
		}
	}

	return &domain.ParkingStats{
		TotalCarSlots:  s.carSlots,
		CarIn:          carIn,
		CarAvailable:   s.carSlots - carIn,
		TotalBikeSlots: s.bikeSlots,
		BikeIn:         bikeIn,
		BikeAvailable:  s.bikeSlots - bikeIn,
	}, nil
}
