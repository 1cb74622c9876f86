package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/auragate/parking-backend/internal/core/domain"
	"github.com/auragate/parking-backend/internal/core/match"
	"github.com/auragate/parking-backend/internal/core/ports"
)

// SessionService orchestrates vehicle check-in and check-out: feature
// extraction, identity resolution, the guest-vs-employee decision, the
// session ledger and the guest slot counters.
type SessionService struct {
	sessions   ports.SessionRepository
	users      ports.UserRepository
	stats      ports.StatsRepository
	recognizer ports.Recognizer
	cleaner    ports.GuestCleaner
	lock       ports.EntryLock
	policy     domain.SlotPolicy
	threshold  float64
	logger     zerolog.Logger
}

func NewSessionService(
	sessions ports.SessionRepository,
	users ports.UserRepository,
	stats ports.StatsRepository,
	recognizer ports.Recognizer,
	cleaner ports.GuestCleaner,
	lock ports.EntryLock,
	policy domain.SlotPolicy,
	threshold float64,
	logger zerolog.Logger,
) *SessionService {
	if threshold <= 0 || threshold >= 1 {
		threshold = match.DefaultThreshold
	}
	return &SessionService{
		sessions:   sessions,
		users:      users,
		stats:      stats,
		recognizer: recognizer,
		cleaner:    cleaner,
		lock:       lock,
		policy:     policy,
		threshold:  threshold,
		logger:     logger,
	}
}

// LogEntry checks a vehicle in. The captured face and plate are resolved
// against the roster; only when face and plate agree on the same EMPLOYEE is
// that user reused, otherwise a fresh GUEST record is created. A new IN
// session is opened unless the plate already has one.
func (s *SessionService) LogEntry(ctx context.Context, input ports.LogEntryInput) (*domain.ParkingSession, error) {
	features, err := s.recognizer.ExtractFeatures(ctx, input.FaceImages, input.PlateImage)
	if err != nil {
		s.logger.Warn().Err(err).Msg("entry feature extraction failed")
		return nil, err
	}
	if !features.FaceFound || !features.PlateFound || len(features.Embeddings) == 0 {
		return nil, fmt.Errorf("log entry: %w", domain.ErrRecognitionFailed)
	}

	plate := strings.TrimSpace(features.PlateText)
	if plate == "" {
		return nil, fmt.Errorf("log entry: empty plate text: %w", domain.ErrRecognitionFailed)
	}

	// Serialize concurrent check-ins for the same plate around the
	// duplicate guard and the insert. The partial unique index on the
	// sessions collection backstops this when the lock is unavailable.
	if s.lock != nil {
		acquired, lockErr := s.lock.Acquire(ctx, match.NormalizePlate(plate))
		if lockErr != nil {
			s.logger.Warn().Err(lockErr).Str("plate", plate).Msg("entry lock unavailable, relying on unique index")
		} else if !acquired {
			return nil, fmt.Errorf("log entry: concurrent check-in for plate %s: %w", plate, domain.ErrDuplicateEntry)
		} else {
			defer s.lock.Release(ctx, match.NormalizePlate(plate))
		}
	}

	active, err := s.sessions.IsPlateActive(ctx, plate)
	if err != nil {
		return nil, fmt.Errorf("log entry: duplicate check: %w", err)
	}
	if active {
		s.logger.Info().Str("plate", plate).Msg("entry rejected: plate already inside")
		return nil, fmt.Errorf("log entry: plate %s: %w", plate, domain.ErrDuplicateEntry)
	}

	roster, err := s.users.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("log entry: load roster: %w", err)
	}

	faceUser := match.Face(roster, features.Embeddings[0], s.threshold)
	plateUser := match.Plate(roster, plate)

	hint := domain.VehicleType(input.VehicleType)
	if !hint.IsValid() {
		hint = ""
	}

	user, err := s.resolveEntryUser(ctx, faceUser, plateUser, features.Embeddings, plate, hint)
	if err != nil {
		return nil, err
	}

	vehicleType := user.VehicleType
	if vehicleType == "" {
		vehicleType = hint
	}

	session := &domain.ParkingSession{
		UserID:       user.ID,
		LicensePlate: plate,
		FaceIdentity: user.FullName,
		CheckinTime:  time.Now().UTC(),
		Status:       domain.SessionIn,
		VehicleType:  vehicleType,
	}

	created, err := s.sessions.Create(ctx, session)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEntry) {
			return nil, fmt.Errorf("log entry: plate %s: %w", plate, domain.ErrDuplicateEntry)
		}
		return nil, fmt.Errorf("log entry: open session: %w", err)
	}

	if (!s.policy.IncrementGuestOnly || user.IsGuest()) && hint.IsValid() {
		if incErr := s.stats.AdjustGuestCount(ctx, hint, 1); incErr != nil {
			s.logger.Error().Err(incErr).Str("vehicle_type", string(hint)).Msg("failed to increment guest counter")
		}
	}

	created.User = user
	s.logger.Info().
		Str("session_id", created.ID).
		Str("plate", plate).
		Str("role", string(user.Role)).
		Str("vehicle_type", string(vehicleType)).
		Msg("vehicle checked in")

	return created, nil
}

// resolveEntryUser applies the guest-vs-employee policy: reuse only when the
// face and plate matchers agree on one EMPLOYEE; everything else becomes a
// fresh guest carrying the captured embeddings and plate.
func (s *SessionService) resolveEntryUser(
	ctx context.Context,
	faceUser, plateUser *domain.User,
	embeddings [][]float64,
	plate string,
	hint domain.VehicleType,
) (*domain.User, error) {
	if faceUser != nil && plateUser != nil && faceUser.ID == plateUser.ID && faceUser.Role == domain.RoleEmployee {
		s.logger.Info().Str("user_id", faceUser.ID).Str("name", faceUser.FullName).Msg("employee recognized at entry")
		return faceUser, nil
	}

	now := time.Now().UTC()
	guest := &domain.User{
		FullName:       domain.GuestFullName,
		Email:          fmt.Sprintf("guest_%s@auragate.vn", uuid.NewString()),
		Role:           domain.RoleGuest,
		FaceEmbeddings: embeddings,
		LicensePlates:  []string{plate},
		VehicleType:    hint,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	created, err := s.users.Create(ctx, guest)
	if err != nil {
		return nil, fmt.Errorf("log entry: create guest: %w", err)
	}
	s.logger.Info().Str("user_id", created.ID).Str("email", created.Email).Msg("guest created at entry")
	return created, nil
}

// LogExit checks a vehicle out. Active sessions are filtered by the captured
// plate, then the presented face is verified against each candidate's owner
// in iteration order; the first owner clearing the threshold wins. Closing
// decrements the slot counter per policy and schedules guest cleanup.
func (s *SessionService) LogExit(ctx context.Context, input ports.LogExitInput) (*domain.ParkingSession, error) {
	faceRes, err := s.recognizer.ExtractFace(ctx, input.FaceImage)
	if err != nil {
		s.logger.Warn().Err(err).Msg("exit face extraction failed")
		return nil, err
	}
	if !faceRes.FaceFound || len(faceRes.Embedding) == 0 {
		return nil, fmt.Errorf("log exit: no face: %w", domain.ErrRecognitionFailed)
	}

	plateRes, err := s.recognizer.ExtractPlate(ctx, input.PlateImage)
	if err != nil {
		s.logger.Warn().Err(err).Msg("exit plate extraction failed")
		return nil, err
	}
	if !plateRes.PlateFound || strings.TrimSpace(plateRes.PlateText) == "" {
		return nil, fmt.Errorf("log exit: no plate: %w", domain.ErrRecognitionFailed)
	}

	plate := strings.TrimSpace(plateRes.PlateText)

	active, err := s.sessions.FindActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("log exit: load active sessions: %w", err)
	}

	var matched *domain.ParkingSession
	var owner *domain.User
	for _, session := range active {
		if strings.TrimSpace(session.LicensePlate) != plate {
			continue
		}
		candidate, findErr := s.users.FindByID(ctx, session.UserID)
		if findErr != nil {
			s.logger.Warn().Err(findErr).Str("session_id", session.ID).Msg("active session owner missing")
			continue
		}
		if match.Face([]*domain.User{candidate}, faceRes.Embedding, s.threshold) != nil {
			matched = session
			owner = candidate
			break
		}
	}

	if matched == nil {
		s.logger.Info().Str("plate", plate).Msg("exit rejected: no verified owner")
		return nil, fmt.Errorf("log exit: plate %s: %w", plate, domain.ErrVerificationFailed)
	}

	closed, err := s.sessions.Close(ctx, matched.ID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("log exit: close session: %w", err)
	}

	if closed.VehicleType.IsValid() && (!s.policy.DecrementGuestOnly || owner.IsGuest()) {
		if decErr := s.stats.AdjustGuestCount(ctx, closed.VehicleType, -1); decErr != nil {
			s.logger.Error().Err(decErr).Str("vehicle_type", string(closed.VehicleType)).Msg("failed to decrement guest counter")
		}
	} else if !closed.VehicleType.IsValid() {
		s.logger.Warn().Str("session_id", closed.ID).Msg("unknown vehicle type, counter untouched")
	}

	if owner.IsGuest() && s.cleaner != nil {
		s.cleaner.Schedule(owner.ID, owner.Email)
	}

	closed.User = owner
	s.logger.Info().
		Str("session_id", closed.ID).
		Str("plate", plate).
		Str("role", string(owner.Role)).
		Msg("vehicle checked out")

	return closed, nil
}

// ActiveSessions returns all IN sessions with their owners populated.
func (s *SessionService) ActiveSessions(ctx context.Context) ([]*domain.ParkingSession, error) {
	sessions, err := s.sessions.FindActive(ctx)
	if err != nil {
		return nil, err
	}
	return s.populate(ctx, sessions), nil
}

// AllSessions returns the complete ledger with owners populated.
func (s *SessionService) AllSessions(ctx context.Context) ([]*domain.ParkingSession, error) {
	sessions, err := s.sessions.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.populate(ctx, sessions), nil
}

// UserHistory returns all sessions owned by one user.
func (s *SessionService) UserHistory(ctx context.Context, userID string) ([]*domain.ParkingSession, error) {
	sessions, err := s.sessions.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.populate(ctx, sessions), nil
}

// StatsByPeriod returns entry/exit counts bucketed by calendar period.
func (s *SessionService) StatsByPeriod(ctx context.Context, period domain.Period) ([]domain.LogStats, error) {
	if _, ok := period.LabelFormat(); !ok {
		return nil, fmt.Errorf("stats by period: invalid period %q", period)
	}
	return s.sessions.AggregateByPeriod(ctx, period)
}

// populate attaches owners to sessions; a missing owner leaves User nil
// rather than failing the whole query.
func (s *SessionService) populate(ctx context.Context, sessions []*domain.ParkingSession) []*domain.ParkingSession {
	for _, session := range sessions {
		user, err := s.users.FindByID(ctx, session.UserID)
		if err != nil {
			s.logger.Debug().Str("session_id", session.ID).Str("user_id", session.UserID).Msg("session owner not found")
			continue
		}
		session.User = user
	}
	return sessions
}
