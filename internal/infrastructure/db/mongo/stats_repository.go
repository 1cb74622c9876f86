package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/auragate/parking-backend/internal/core/domain"
)

const collectionStats = "parking_stats"

// StatsRepository maintains the singleton guest-counter document. All
// adjustments go through $inc so concurrent entries and exits never lose
// updates to read-modify-write races.
type StatsRepository struct {
	col *mongo.Collection
}

func NewStatsRepository(db *mongo.Database) *StatsRepository {
	return &StatsRepository{col: db.Collection(collectionStats)}
}

func counterField(vt domain.VehicleType) (string, bool) {
	switch vt {
	case domain.VehicleCar:
		return "car_in", true
	case domain.VehicleBike:
		return "bike_in", true
	default:
		return "", false
	}
}

// AdjustGuestCount atomically adds delta to the counter for the vehicle
// class. Upsert keeps the singleton self-initializing.
func (r *StatsRepository) AdjustGuestCount(ctx context.Context, vt domain.VehicleType, delta int64) error {
	field, ok := counterField(vt)
	if !ok {
		return fmt.Errorf("adjust guest count: unknown vehicle type %q", vt)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.UpdateOne(ctx,
		bson.M{},
		bson.M{"$inc": bson.M{field: delta}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("adjust guest count: %w", err)
	}
	return nil
}

// Counters returns the persisted guest counters, zeroed when the singleton
// has not been written yet.
func (r *StatsRepository) Counters(ctx context.Context) (*domain.GuestCounters, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var gc domain.GuestCounters
	err := r.col.FindOne(ctx, bson.M{}).Decode(&gc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return &domain.GuestCounters{}, nil
		}
		return nil, fmt.Errorf("read guest counters: %w", err)
	}
	return &gc, nil
}
