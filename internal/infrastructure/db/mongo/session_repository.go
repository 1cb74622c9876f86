package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/auragate/parking-backend/internal/core/domain"
)

const collectionSessions = "parking_sessions"

type SessionRepository struct {
	col *mongo.Collection
}

func NewSessionRepository(db *mongo.Database) *SessionRepository {
	return &SessionRepository{col: db.Collection(collectionSessions)}
}

type mongoSession struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	UserID       string             `bson:"user_id"`
	LicensePlate string             `bson:"license_plate"`
	FaceIdentity string             `bson:"face_identity"`
	CheckinTime  time.Time          `bson:"checkin_time"`
	CheckoutTime *time.Time         `bson:"checkout_time,omitempty"`
	Status       string             `bson:"status"`
	VehicleType  string             `bson:"vehicle_type,omitempty"`
}

func (m *mongoSession) toDomain() *domain.ParkingSession {
	return &domain.ParkingSession{
		ID:           m.ID.Hex(),
		UserID:       m.UserID,
		LicensePlate: m.LicensePlate,
		FaceIdentity: m.FaceIdentity,
		CheckinTime:  m.CheckinTime,
		CheckoutTime: m.CheckoutTime,
		Status:       domain.SessionStatus(m.Status),
		VehicleType:  domain.VehicleType(m.VehicleType),
	}
}

// Create inserts an IN session. The partial unique index on license_plate
// (status=IN only) turns a concurrent double check-in into a duplicate key
// error, mapped to domain.ErrDuplicateEntry.
func (r *SessionRepository) Create(ctx context.Context, s *domain.ParkingSession) (*domain.ParkingSession, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoSession{
		UserID:       s.UserID,
		LicensePlate: s.LicensePlate,
		FaceIdentity: s.FaceIdentity,
		CheckinTime:  s.CheckinTime,
		CheckoutTime: s.CheckoutTime,
		Status:       string(s.Status),
		VehicleType:  string(s.VehicleType),
	}
	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDuplicateEntry
		}
		return nil, fmt.Errorf("insert session: %w", err)
	}

	created := *s
	created.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return &created, nil
}

func (r *SessionRepository) FindByID(ctx context.Context, id string) (*domain.ParkingSession, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrSessionNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var ms mongoSession
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&ms); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	return ms.toDomain(), nil
}

func (r *SessionRepository) IsPlateActive(ctx context.Context, plate string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{
		"license_plate": plate,
		"status":        string(domain.SessionIn),
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count active sessions: %w", err)
	}
	return n > 0, nil
}

// Close atomically flips an IN session to OUT and stamps the checkout time.
// The status filter makes the transition single-shot: a second close finds
// no IN document and reports domain.ErrSessionClosed.
func (r *SessionRepository) Close(ctx context.Context, id string, at time.Time) (*domain.ParkingSession, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrSessionNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"_id": oid, "status": string(domain.SessionIn)}
	update := bson.M{"$set": bson.M{
		"status":        string(domain.SessionOut),
		"checkout_time": at.UTC(),
	}}

	var ms mongoSession
	err = r.col.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&ms)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Either unknown id or already OUT; disambiguate for the caller.
			if _, findErr := r.FindByID(ctx, id); findErr == nil {
				return nil, domain.ErrSessionClosed
			}
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("close session: %w", err)
	}
	return ms.toDomain(), nil
}

func (r *SessionRepository) FindActive(ctx context.Context) ([]*domain.ParkingSession, error) {
	return r.find(ctx, bson.M{"status": string(domain.SessionIn)})
}

func (r *SessionRepository) FindAll(ctx context.Context) ([]*domain.ParkingSession, error) {
	return r.find(ctx, bson.M{})
}

func (r *SessionRepository) FindByUser(ctx context.Context, userID string) ([]*domain.ParkingSession, error) {
	return r.find(ctx, bson.M{"user_id": userID})
}

func (r *SessionRepository) HasSessionsForUser(ctx context.Context, userID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{"user_id": userID}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count user sessions: %w", err)
	}
	return n > 0, nil
}

func (r *SessionRepository) find(ctx context.Context, filter bson.M) ([]*domain.ParkingSession, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "checkin_time", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer cur.Close(ctx)

	var out []*domain.ParkingSession
	for cur.Next(ctx) {
		var ms mongoSession
		if err := cur.Decode(&ms); err != nil {
			return nil, fmt.Errorf("decode session: %w", err)
		}
		out = append(out, ms.toDomain())
	}
	return out, cur.Err()
}

// mongoDateFormat maps a period to the $dateToString format string.
func mongoDateFormat(period domain.Period) (string, bool) {
	switch period {
	case domain.PeriodDay:
		return "%Y-%m-%d", true
	case domain.PeriodMonth:
		return "%Y-%m", true
	case domain.PeriodYear:
		return "%Y", true
	default:
		return "", false
	}
}

// AggregateByPeriod projects every check-in as an IN event and every
// non-null check-out as an OUT event ($unionWith on the same collection),
// groups both streams by formatted date label and counts each kind.
func (r *SessionRepository) AggregateByPeriod(ctx context.Context, period domain.Period) ([]domain.LogStats, error) {
	format, ok := mongoDateFormat(period)
	if !ok {
		return nil, fmt.Errorf("aggregate by period: invalid period %q", period)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$project", Value: bson.M{
			"time": bson.M{"$dateToString": bson.M{"format": format, "date": "$checkin_time"}},
			"type": bson.M{"$literal": "IN"},
		}}},
		{{Key: "$unionWith", Value: bson.M{
			"coll": collectionSessions,
			"pipeline": bson.A{
				bson.M{"$match": bson.M{"checkout_time": bson.M{"$ne": nil}}},
				bson.M{"$project": bson.M{
					"time": bson.M{"$dateToString": bson.M{"format": format, "date": "$checkout_time"}},
					"type": bson.M{"$literal": "OUT"},
				}},
			},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":      "$time",
			"totalIn":  bson.M{"$sum": bson.M{"$cond": bson.A{bson.M{"$eq": bson.A{"$type", "IN"}}, 1, 0}}},
			"totalOut": bson.M{"$sum": bson.M{"$cond": bson.A{bson.M{"$eq": bson.A{"$type", "OUT"}}, 1, 0}}},
		}}},
		{{Key: "$project", Value: bson.M{
			"label":    "$_id",
			"totalIn":  1,
			"totalOut": 1,
			"_id":      0,
		}}},
		{{Key: "$sort", Value: bson.M{"label": 1}}},
	}

	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate sessions: %w", err)
	}
	defer cur.Close(ctx)

	var out []domain.LogStats
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode aggregation: %w", err)
	}
	return out, nil
}

// EnsureIndexes creates the ledger indexes. The partial unique index is the
// storage-level guarantee behind the duplicate-entry guard.
func (r *SessionRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "license_plate", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": string(domain.SessionIn)}),
		},
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "checkin_time", Value: -1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
