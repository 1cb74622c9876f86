package ports

import (
	"context"
	"time"

	"github.com/auragate/parking-backend/internal/core/domain"
)

// SessionRepository is the parking-session ledger.
type SessionRepository interface {
	// Create inserts an IN session. Returns domain.ErrDuplicateEntry when
	// another IN session already exists for the same plate (partial unique
	// index on {license_plate} where status=IN).
	Create(ctx context.Context, s *domain.ParkingSession) (*domain.ParkingSession, error)
	FindByID(ctx context.Context, id string) (*domain.ParkingSession, error)
	// IsPlateActive reports whether an IN session exists for the plate.
	IsPlateActive(ctx context.Context, plate string) (bool, error)
	// Close transitions the session to OUT, stamping checkoutTime. Returns
	// domain.ErrSessionClosed when the session is not currently IN.
	Close(ctx context.Context, id string, at time.Time) (*domain.ParkingSession, error)
	FindActive(ctx context.Context) ([]*domain.ParkingSession, error)
	FindAll(ctx context.Context) ([]*domain.ParkingSession, error)
	FindByUser(ctx context.Context, userID string) ([]*domain.ParkingSession, error)
	// HasSessionsForUser reports whether the user owns any session at all.
	HasSessionsForUser(ctx context.Context, userID string) (bool, error)
	// AggregateByPeriod buckets check-in and check-out events independently
	// by formatted date label and counts each kind, sorted by label.
	AggregateByPeriod(ctx context.Context, period domain.Period) ([]domain.LogStats, error)
}
