package ports

import (
	"context"

	"github.com/auragate/parking-backend/internal/core/domain"
)

// StatsRepository maintains the persisted guest occupancy counters.
type StatsRepository interface {
	// AdjustGuestCount atomically adds delta (+1 or -1) to the counter for
	// the given vehicle class. The arithmetic happens at the storage layer
	// ($inc), never as read-modify-write in application code.
	AdjustGuestCount(ctx context.Context, vt domain.VehicleType, delta int64) error
	Counters(ctx context.Context) (*domain.GuestCounters, error)
}
