package ports

import (
	"context"

	"github.com/auragate/parking-backend/internal/core/domain"
)

// LogEntryInput carries the check-in captures.
type LogEntryInput struct {
	FaceImages  []string
	PlateImage  string
	VehicleType string // optional hint: "CAR" or "BIKE"
}

// LogExitInput carries the check-out captures.
type LogExitInput struct {
	FaceImage  string
	PlateImage string
}

// SessionService orchestrates vehicle check-in/check-out and session queries.
type SessionService interface {
	LogEntry(ctx context.Context, input LogEntryInput) (*domain.ParkingSession, error)
	LogExit(ctx context.Context, input LogExitInput) (*domain.ParkingSession, error)
	ActiveSessions(ctx context.Context) ([]*domain.ParkingSession, error)
	AllSessions(ctx context.Context) ([]*domain.ParkingSession, error)
	UserHistory(ctx context.Context, userID string) ([]*domain.ParkingSession, error)
	StatsByPeriod(ctx context.Context, period domain.Period) ([]domain.LogStats, error)
}

// GuestCleaner schedules best-effort removal of an ephemeral guest record
// after exit. Scheduling must never block or fail the exit operation.
type GuestCleaner interface {
	Schedule(userID, email string)
}

// EntryLock serializes concurrent check-ins for the same plate while the
// duplicate guard and session insert run. Acquire returns false when another
// entry for the plate is in flight.
type EntryLock interface {
	Acquire(ctx context.Context, plate string) (bool, error)
	Release(ctx context.Context, plate string)
}
