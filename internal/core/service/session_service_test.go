package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/auragate/parking-backend/internal/core/domain"
	"github.com/auragate/parking-backend/internal/core/ports"
)

var discardLogger = zerolog.Nop()

// ---------------------------------------------------------------------------
// In-memory stubs
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	mu     sync.Mutex
	nextID int
	users  []*domain.User // insertion order, mirrors roster scan order
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{}
}

func (r *stubUserRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return nil, domain.ErrUserExists
		}
	}
	r.nextID++
	clone := *u
	clone.ID = fmt.Sprintf("u%d", r.nextID)
	r.users = append(r.users, &clone)
	out := clone
	return &out, nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindAll(_ context.Context) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		clone := *u
		out = append(out, &clone)
	}
	return out, nil
}

func (r *stubUserRepo) FindByRoles(_ context.Context, roles ...domain.Role) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.User
	for _, u := range r.users {
		for _, role := range roles {
			if u.Role == role {
				clone := *u
				out = append(out, &clone)
				break
			}
		}
	}
	return out, nil
}

func (r *stubUserRepo) Update(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, u := range r.users {
		if u.ID == user.ID {
			clone := *user
			r.users[i] = &clone
			out := clone
			return &out, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, u := range r.users {
		if u.ID == id {
			r.users = append(r.users[:i], r.users[i+1:]...)
			return nil
		}
	}
	return domain.ErrUserNotFound
}

func (r *stubUserRepo) DeleteStaleGuests(_ context.Context, _ int64) (int64, error) {
	return 0, nil
}

func (r *stubUserRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

type stubSessionRepo struct {
	mu       sync.Mutex
	nextID   int
	sessions []*domain.ParkingSession
}

func newStubSessionRepo() *stubSessionRepo {
	return &stubSessionRepo{}
}

func (r *stubSessionRepo) Create(_ context.Context, s *domain.ParkingSession) (*domain.ParkingSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Mirrors the partial unique index: one IN session per plate.
	for _, existing := range r.sessions {
		if existing.Status == domain.SessionIn && existing.LicensePlate == s.LicensePlate {
			return nil, domain.ErrDuplicateEntry
		}
	}
	r.nextID++
	clone := *s
	clone.ID = fmt.Sprintf("s%d", r.nextID)
	r.sessions = append(r.sessions, &clone)
	out := clone
	return &out, nil
}

func (r *stubSessionRepo) FindByID(_ context.Context, id string) (*domain.ParkingSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.ID == id {
			clone := *s
			return &clone, nil
		}
	}
	return nil, domain.ErrSessionNotFound
}

func (r *stubSessionRepo) IsPlateActive(_ context.Context, plate string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.Status == domain.SessionIn && s.LicensePlate == plate {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubSessionRepo) Close(_ context.Context, id string, at time.Time) (*domain.ParkingSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.ID != id {
			continue
		}
		if s.Status != domain.SessionIn {
			return nil, domain.ErrSessionClosed
		}
		s.Status = domain.SessionOut
		ts := at
		s.CheckoutTime = &ts
		clone := *s
		return &clone, nil
	}
	return nil, domain.ErrSessionNotFound
}

func (r *stubSessionRepo) FindActive(_ context.Context) ([]*domain.ParkingSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.ParkingSession
	for _, s := range r.sessions {
		if s.Status == domain.SessionIn {
			clone := *s
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubSessionRepo) FindAll(_ context.Context) ([]*domain.ParkingSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.ParkingSession, 0, len(r.sessions))
	for _, s := range r.sessions {
		clone := *s
		out = append(out, &clone)
	}
	return out, nil
}

func (r *stubSessionRepo) FindByUser(_ context.Context, userID string) ([]*domain.ParkingSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.ParkingSession
	for _, s := range r.sessions {
		if s.UserID == userID {
			clone := *s
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubSessionRepo) HasSessionsForUser(_ context.Context, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

// AggregateByPeriod applies the same bucketing the Mongo pipeline performs:
// IN events by check-in label, OUT events by check-out label, sorted by label.
func (r *stubSessionRepo) AggregateByPeriod(_ context.Context, period domain.Period) ([]domain.LogStats, error) {
	layout, ok := period.LabelFormat()
	if !ok {
		return nil, fmt.Errorf("invalid period %q", period)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	buckets := map[string]*domain.LogStats{}
	get := func(label string) *domain.LogStats {
		if b, found := buckets[label]; found {
			return b
		}
		b := &domain.LogStats{Label: label}
		buckets[label] = b
		return b
	}
	for _, s := range r.sessions {
		get(s.CheckinTime.UTC().Format(layout)).TotalIn++
		if s.CheckoutTime != nil {
			get(s.CheckoutTime.UTC().Format(layout)).TotalOut++
		}
	}

	labels := make([]string, 0, len(buckets))
	for label := range buckets {
		labels = append(labels, label)
	}
	for i := range labels {
		for j := i + 1; j < len(labels); j++ {
			if labels[j] < labels[i] {
				labels[i], labels[j] = labels[j], labels[i]
			}
		}
	}
	out := make([]domain.LogStats, 0, len(labels))
	for _, label := range labels {
		out = append(out, *buckets[label])
	}
	return out, nil
}

func (r *stubSessionRepo) activeCountForPlate(plate string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.sessions {
		if s.Status == domain.SessionIn && s.LicensePlate == plate {
			n++
		}
	}
	return n
}

type stubStatsRepo struct {
	mu     sync.Mutex
	carIn  int64
	bikeIn int64
}

func (r *stubStatsRepo) AdjustGuestCount(_ context.Context, vt domain.VehicleType, delta int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch vt {
	case domain.VehicleCar:
		r.carIn += delta
	case domain.VehicleBike:
		r.bikeIn += delta
	}
	return nil
}

func (r *stubStatsRepo) Counters(_ context.Context) (*domain.GuestCounters, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &domain.GuestCounters{CarIn: r.carIn, BikeIn: r.bikeIn}, nil
}

type stubRecognizer struct {
	features    *ports.FeatureResult
	featuresErr error
	face        *ports.FaceResult
	faceErr     error
	plate       *ports.PlateResult
	plateErr    error
}

func (r *stubRecognizer) ExtractFeatures(_ context.Context, _ []string, _ string) (*ports.FeatureResult, error) {
	if r.featuresErr != nil {
		return nil, r.featuresErr
	}
	return r.features, nil
}

func (r *stubRecognizer) ExtractFace(_ context.Context, _ string) (*ports.FaceResult, error) {
	if r.faceErr != nil {
		return nil, r.faceErr
	}
	return r.face, nil
}

func (r *stubRecognizer) ExtractPlate(_ context.Context, _ string) (*ports.PlateResult, error) {
	if r.plateErr != nil {
		return nil, r.plateErr
	}
	return r.plate, nil
}

type stubCleaner struct {
	mu        sync.Mutex
	scheduled []string
}

func (c *stubCleaner) Schedule(userID, _ string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scheduled = append(c.scheduled, userID)
}

func (c *stubCleaner) scheduledIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.scheduled...)
}

type stubLock struct {
	denied bool
	held   map[string]bool
}

func (l *stubLock) Acquire(_ context.Context, plate string) (bool, error) {
	if l.denied {
		return false, nil
	}
	if l.held == nil {
		l.held = map[string]bool{}
	}
	if l.held[plate] {
		return false, nil
	}
	l.held[plate] = true
	return true, nil
}

func (l *stubLock) Release(_ context.Context, plate string) {
	delete(l.held, plate)
}

// ---------------------------------------------------------------------------
// Fixture
// ---------------------------------------------------------------------------

type fixture struct {
	users    *stubUserRepo
	sessions *stubSessionRepo
	stats    *stubStatsRepo
	rec      *stubRecognizer
	cleaner  *stubCleaner
	svc      *SessionService
}

func newFixture(rec *stubRecognizer, policy domain.SlotPolicy) *fixture {
	f := &fixture{
		users:    newStubUserRepo(),
		sessions: newStubSessionRepo(),
		stats:    &stubStatsRepo{},
		rec:      rec,
		cleaner:  &stubCleaner{},
	}
	f.svc = NewSessionService(f.sessions, f.users, f.stats, rec, f.cleaner, &stubLock{}, policy, 0.95, discardLogger)
	return f
}

var (
	guestEmbedding    = []float64{0.2, 0.4, 0.6, 0.8}
	employeeEmbedding = []float64{0.9, 0.1, 0.1, 0.1}
)

func entryFeatures(plate string, embeddings ...[]float64) *ports.FeatureResult {
	return &ports.FeatureResult{
		FaceFound:  true,
		PlateFound: true,
		Embeddings: embeddings,
		PlateText:  plate,
	}
}

func (f *fixture) addEmployee(name, plate string, embedding []float64) *domain.User {
	created, _ := f.users.Create(context.Background(), &domain.User{
		FullName:       name,
		Email:          strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@auragate.vn",
		PasswordHash:   "x",
		FaceEmbeddings: [][]float64{embedding},
		LicensePlates:  []string{plate},
		Role:           domain.RoleEmployee,
		VehicleType:    domain.VehicleCar,
	})
	return created
}

// ---------------------------------------------------------------------------
// LogEntry
// ---------------------------------------------------------------------------

// Scenario A: unmatched capture creates a guest and opens an IN session.
func TestLogEntry_UnmatchedCreatesGuest(t *testing.T) {
	f := newFixture(&stubRecognizer{features: entryFeatures("51A-12345", guestEmbedding)}, domain.DefaultSlotPolicy())

	session, err := f.svc.LogEntry(context.Background(), ports.LogEntryInput{
		FaceImages:  []string{"img1"},
		PlateImage:  "plate",
		VehicleType: "CAR",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if session.Status != domain.SessionIn {
		t.Errorf("status = %s, want IN", session.Status)
	}
	if session.LicensePlate != "51A-12345" {
		t.Errorf("plate = %q", session.LicensePlate)
	}
	if session.User == nil || session.User.Role != domain.RoleGuest {
		t.Fatalf("expected a new GUEST owner, got %+v", session.User)
	}
	if session.FaceIdentity != domain.GuestFullName {
		t.Errorf("faceIdentity = %q, want guest display name", session.FaceIdentity)
	}
	if !strings.HasPrefix(session.User.Email, "guest_") || !strings.HasSuffix(session.User.Email, "@auragate.vn") {
		t.Errorf("guest email format wrong: %s", session.User.Email)
	}
	if len(session.User.LicensePlates) != 1 || session.User.LicensePlates[0] != "51A-12345" {
		t.Errorf("guest plates = %v", session.User.LicensePlates)
	}
	if f.stats.carIn != 1 {
		t.Errorf("carIn = %d, want 1 after guest car entry", f.stats.carIn)
	}
}

// Scenario B: a second entry for the same plate fails and mutates nothing.
func TestLogEntry_DuplicatePlateRejected(t *testing.T) {
	f := newFixture(&stubRecognizer{features: entryFeatures("51A-12345", guestEmbedding)}, domain.DefaultSlotPolicy())
	ctx := context.Background()

	if _, err := f.svc.LogEntry(ctx, ports.LogEntryInput{FaceImages: []string{"a"}, PlateImage: "p", VehicleType: "CAR"}); err != nil {
		t.Fatalf("first entry failed: %v", err)
	}
	usersBefore := f.users.count()

	// Different face, same plate.
	f.rec.features = entryFeatures("51A-12345", []float64{0.5, 0.5, 0.1, 0.1})
	_, err := f.svc.LogEntry(ctx, ports.LogEntryInput{FaceImages: []string{"b"}, PlateImage: "p", VehicleType: "CAR"})
	if !errors.Is(err, domain.ErrDuplicateEntry) {
		t.Fatalf("expected ErrDuplicateEntry, got %v", err)
	}

	if got := f.sessions.activeCountForPlate("51A-12345"); got != 1 {
		t.Errorf("active sessions for plate = %d, want 1", got)
	}
	if f.users.count() != usersBefore {
		t.Error("duplicate entry must not create a user")
	}
	if f.stats.carIn != 1 {
		t.Errorf("carIn = %d, want 1", f.stats.carIn)
	}
}

// Scenario D: face and plate agreeing on one EMPLOYEE reuses that user.
func TestLogEntry_EmployeeRecognizedIsReused(t *testing.T) {
	f := newFixture(&stubRecognizer{features: entryFeatures("29B-55555", employeeEmbedding)}, domain.DefaultSlotPolicy())
	emp := f.addEmployee("Tran Van A", "29B-55555", employeeEmbedding)

	session, err := f.svc.LogEntry(context.Background(), ports.LogEntryInput{FaceImages: []string{"a"}, PlateImage: "p"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if session.User == nil || session.User.ID != emp.ID {
		t.Fatalf("expected employee %s reused, got %+v", emp.ID, session.User)
	}
	if session.FaceIdentity != "Tran Van A" {
		t.Errorf("faceIdentity = %q, want employee full name", session.FaceIdentity)
	}
	if f.users.count() != 1 {
		t.Error("no new user should be created for a recognized employee")
	}
	if f.stats.carIn != 0 {
		t.Error("employee entry must not touch guest counters")
	}
}

// Disagreement between matchers falls through to guest creation.
func TestLogEntry_MatcherDisagreementCreatesGuest(t *testing.T) {
	f := newFixture(&stubRecognizer{features: entryFeatures("29B-55555", employeeEmbedding)}, domain.DefaultSlotPolicy())
	f.addEmployee("Face Owner", "99Z-99999", employeeEmbedding) // face matches
	f.addEmployee("Plate Owner", "29B-55555", guestEmbedding)   // plate matches

	session, err := f.svc.LogEntry(context.Background(), ports.LogEntryInput{FaceImages: []string{"a"}, PlateImage: "p"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.User.Role != domain.RoleGuest {
		t.Errorf("disagreeing matchers must yield a guest, got role %s", session.User.Role)
	}
}

func TestLogEntry_AdminMatchStillCreatesGuest(t *testing.T) {
	f := newFixture(&stubRecognizer{features: entryFeatures("30A-11111", employeeEmbedding)}, domain.DefaultSlotPolicy())
	admin, _ := f.users.Create(context.Background(), &domain.User{
		FullName:       "Boss",
		Email:          "boss@auragate.vn",
		FaceEmbeddings: [][]float64{employeeEmbedding},
		LicensePlates:  []string{"30A-11111"},
		Role:           domain.RoleAdmin,
	})

	session, err := f.svc.LogEntry(context.Background(), ports.LogEntryInput{FaceImages: []string{"a"}, PlateImage: "p"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.User.ID == admin.ID {
		t.Error("ADMIN match must not be reused at entry")
	}
	if session.User.Role != domain.RoleGuest {
		t.Errorf("expected guest, got %s", session.User.Role)
	}
}

func TestLogEntry_RecognitionFailures(t *testing.T) {
	cases := []struct {
		name     string
		features *ports.FeatureResult
		err      error
	}{
		{"service error", nil, fmt.Errorf("extract features: %w", domain.ErrRecognitionFailed)},
		{"no face", &ports.FeatureResult{FaceFound: false, PlateFound: true, Embeddings: [][]float64{guestEmbedding}, PlateText: "51A-1"}, nil},
		{"no plate", &ports.FeatureResult{FaceFound: true, PlateFound: false, Embeddings: [][]float64{guestEmbedding}}, nil},
		{"no embeddings", &ports.FeatureResult{FaceFound: true, PlateFound: true, PlateText: "51A-1"}, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(&stubRecognizer{features: tc.features, featuresErr: tc.err}, domain.DefaultSlotPolicy())

			_, err := f.svc.LogEntry(context.Background(), ports.LogEntryInput{FaceImages: []string{"a"}, PlateImage: "p"})
			if !errors.Is(err, domain.ErrRecognitionFailed) {
				t.Fatalf("expected ErrRecognitionFailed, got %v", err)
			}
			if f.users.count() != 0 || f.sessions.activeCountForPlate("51A-1") != 0 {
				t.Error("failed recognition must not mutate state")
			}
		})
	}
}

func TestLogEntry_NoHintSkipsCounter(t *testing.T) {
	f := newFixture(&stubRecognizer{features: entryFeatures("51A-12345", guestEmbedding)}, domain.DefaultSlotPolicy())

	session, err := f.svc.LogEntry(context.Background(), ports.LogEntryInput{FaceImages: []string{"a"}, PlateImage: "p"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.User.Role != domain.RoleGuest {
		t.Fatalf("expected guest")
	}
	if f.stats.carIn != 0 || f.stats.bikeIn != 0 {
		t.Error("guest entry without a vehicle hint must not adjust counters")
	}
}

func TestLogEntry_ConcurrentLockDenied(t *testing.T) {
	f := newFixture(&stubRecognizer{features: entryFeatures("51A-12345", guestEmbedding)}, domain.DefaultSlotPolicy())
	f.svc = NewSessionService(f.sessions, f.users, f.stats, f.rec, f.cleaner, &stubLock{denied: true}, domain.DefaultSlotPolicy(), 0.95, discardLogger)

	_, err := f.svc.LogEntry(context.Background(), ports.LogEntryInput{FaceImages: []string{"a"}, PlateImage: "p"})
	if !errors.Is(err, domain.ErrDuplicateEntry) {
		t.Fatalf("expected ErrDuplicateEntry when entry lock is held, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// LogExit
// ---------------------------------------------------------------------------

func exitRecognizer(plate string, embedding []float64) *stubRecognizer {
	return &stubRecognizer{
		face:  &ports.FaceResult{FaceFound: true, Embedding: embedding},
		plate: &ports.PlateResult{PlateFound: true, PlateText: plate},
	}
}

// Scenario C: a matching guest exit closes the session, decrements the
// counter and schedules guest cleanup.
func TestLogExit_GuestExitClosesAndCleansUp(t *testing.T) {
	rec := &stubRecognizer{features: entryFeatures("51A-12345", guestEmbedding)}
	f := newFixture(rec, domain.DefaultSlotPolicy())
	ctx := context.Background()

	entry, err := f.svc.LogEntry(ctx, ports.LogEntryInput{FaceImages: []string{"a"}, PlateImage: "p", VehicleType: "CAR"})
	if err != nil {
		t.Fatalf("entry failed: %v", err)
	}

	rec.face = &ports.FaceResult{FaceFound: true, Embedding: guestEmbedding}
	rec.plate = &ports.PlateResult{PlateFound: true, PlateText: "51A-12345"}

	exit, err := f.svc.LogExit(ctx, ports.LogExitInput{FaceImage: "f", PlateImage: "p"})
	if err != nil {
		t.Fatalf("exit failed: %v", err)
	}

	if exit.Status != domain.SessionOut {
		t.Errorf("status = %s, want OUT", exit.Status)
	}
	if exit.CheckoutTime == nil || exit.CheckoutTime.IsZero() {
		t.Error("checkoutTime must be set")
	}
	if exit.ID != entry.ID {
		t.Errorf("closed session %s, want %s", exit.ID, entry.ID)
	}
	if f.stats.carIn != 0 {
		t.Errorf("carIn = %d, want 0 after exit", f.stats.carIn)
	}
	scheduled := f.cleaner.scheduledIDs()
	if len(scheduled) != 1 || scheduled[0] != entry.User.ID {
		t.Errorf("expected guest %s scheduled for cleanup, got %v", entry.User.ID, scheduled)
	}
	if f.sessions.activeCountForPlate("51A-12345") != 0 {
		t.Error("plate must be free after exit")
	}
}

func TestLogExit_UnverifiedFaceRejected(t *testing.T) {
	rec := &stubRecognizer{features: entryFeatures("51A-12345", guestEmbedding)}
	f := newFixture(rec, domain.DefaultSlotPolicy())
	ctx := context.Background()

	if _, err := f.svc.LogEntry(ctx, ports.LogEntryInput{FaceImages: []string{"a"}, PlateImage: "p", VehicleType: "CAR"}); err != nil {
		t.Fatalf("entry failed: %v", err)
	}

	// Orthogonal face: same plate, wrong person.
	rec.face = &ports.FaceResult{FaceFound: true, Embedding: []float64{-0.8, 0.6, 0, 0}}
	rec.plate = &ports.PlateResult{PlateFound: true, PlateText: "51A-12345"}

	_, err := f.svc.LogExit(ctx, ports.LogExitInput{FaceImage: "f", PlateImage: "p"})
	if !errors.Is(err, domain.ErrVerificationFailed) {
		t.Fatalf("expected ErrVerificationFailed, got %v", err)
	}
	if f.sessions.activeCountForPlate("51A-12345") != 1 {
		t.Error("failed verification must leave the session open")
	}
	if f.stats.carIn != 1 {
		t.Error("failed verification must not touch counters")
	}
	if len(f.cleaner.scheduledIDs()) != 0 {
		t.Error("failed verification must not schedule cleanup")
	}
}

func TestLogExit_RecognitionFailures(t *testing.T) {
	cases := []struct {
		name string
		mod  func(*stubRecognizer)
	}{
		{"face error", func(r *stubRecognizer) { r.faceErr = fmt.Errorf("boom: %w", domain.ErrRecognitionFailed) }},
		{"face not found", func(r *stubRecognizer) { r.face = &ports.FaceResult{FaceFound: false} }},
		{"plate error", func(r *stubRecognizer) { r.plateErr = fmt.Errorf("boom: %w", domain.ErrRecognitionFailed) }},
		{"plate not found", func(r *stubRecognizer) { r.plate = &ports.PlateResult{PlateFound: false} }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := exitRecognizer("51A-12345", guestEmbedding)
			tc.mod(rec)
			f := newFixture(rec, domain.DefaultSlotPolicy())

			_, err := f.svc.LogExit(context.Background(), ports.LogExitInput{FaceImage: "f", PlateImage: "p"})
			if !errors.Is(err, domain.ErrRecognitionFailed) {
				t.Fatalf("expected ErrRecognitionFailed, got %v", err)
			}
		})
	}
}

// The exit decrement is not gated on role under the default policy: an
// employee session with a typed snapshot also decrements. Kept deliberately;
// see the DecrementGuestOnly policy for the symmetric variant.
func TestLogExit_DefaultPolicyDecrementsEmployeeSessions(t *testing.T) {
	rec := &stubRecognizer{features: entryFeatures("29B-55555", employeeEmbedding)}
	f := newFixture(rec, domain.DefaultSlotPolicy())
	f.addEmployee("Tran Van A", "29B-55555", employeeEmbedding)
	ctx := context.Background()

	if _, err := f.svc.LogEntry(ctx, ports.LogEntryInput{FaceImages: []string{"a"}, PlateImage: "p"}); err != nil {
		t.Fatalf("entry failed: %v", err)
	}
	if f.stats.carIn != 0 {
		t.Fatal("employee entry must not increment")
	}

	rec.face = &ports.FaceResult{FaceFound: true, Embedding: employeeEmbedding}
	rec.plate = &ports.PlateResult{PlateFound: true, PlateText: "29B-55555"}
	if _, err := f.svc.LogExit(ctx, ports.LogExitInput{FaceImage: "f", PlateImage: "p"}); err != nil {
		t.Fatalf("exit failed: %v", err)
	}

	if f.stats.carIn != -1 {
		t.Errorf("carIn = %d, want -1 under the legacy asymmetric policy", f.stats.carIn)
	}
	if len(f.cleaner.scheduledIDs()) != 0 {
		t.Error("employee exit must not schedule cleanup")
	}
}

func TestLogExit_GuestOnlyPolicySkipsEmployeeDecrement(t *testing.T) {
	rec := &stubRecognizer{features: entryFeatures("29B-55555", employeeEmbedding)}
	policy := domain.SlotPolicy{IncrementGuestOnly: true, DecrementGuestOnly: true}
	f := newFixture(rec, policy)
	f.addEmployee("Tran Van A", "29B-55555", employeeEmbedding)
	ctx := context.Background()

	if _, err := f.svc.LogEntry(ctx, ports.LogEntryInput{FaceImages: []string{"a"}, PlateImage: "p"}); err != nil {
		t.Fatalf("entry failed: %v", err)
	}

	rec.face = &ports.FaceResult{FaceFound: true, Embedding: employeeEmbedding}
	rec.plate = &ports.PlateResult{PlateFound: true, PlateText: "29B-55555"}
	if _, err := f.svc.LogExit(ctx, ports.LogExitInput{FaceImage: "f", PlateImage: "p"}); err != nil {
		t.Fatalf("exit failed: %v", err)
	}

	if f.stats.carIn != 0 {
		t.Errorf("carIn = %d, want 0 under guest-only decrement policy", f.stats.carIn)
	}
}

// Guest-only sequences keep counters non-negative and pair every +1 with
// exactly one -1.
func TestCounters_GuestSequencesNeverGoNegative(t *testing.T) {
	rec := &stubRecognizer{}
	f := newFixture(rec, domain.DefaultSlotPolicy())
	ctx := context.Background()

	plates := []string{"51A-00001", "51A-00002", "51A-00003"}
	faces := [][]float64{{1, 0, 0, 0.01}, {0, 1, 0, 0.01}, {0, 0, 1, 0.01}}

	for i, plate := range plates {
		rec.features = entryFeatures(plate, faces[i])
		if _, err := f.svc.LogEntry(ctx, ports.LogEntryInput{FaceImages: []string{"a"}, PlateImage: "p", VehicleType: "BIKE"}); err != nil {
			t.Fatalf("entry %d failed: %v", i, err)
		}
	}
	if f.stats.bikeIn != 3 {
		t.Fatalf("bikeIn = %d, want 3", f.stats.bikeIn)
	}

	for i, plate := range plates {
		rec.face = &ports.FaceResult{FaceFound: true, Embedding: faces[i]}
		rec.plate = &ports.PlateResult{PlateFound: true, PlateText: plate}
		if _, err := f.svc.LogExit(ctx, ports.LogExitInput{FaceImage: "f", PlateImage: "p"}); err != nil {
			t.Fatalf("exit %d failed: %v", i, err)
		}
		if f.stats.bikeIn < 0 {
			t.Fatalf("bikeIn went negative: %d", f.stats.bikeIn)
		}
	}
	if f.stats.bikeIn != 0 {
		t.Errorf("bikeIn = %d, want 0 after all exits", f.stats.bikeIn)
	}
}

// ---------------------------------------------------------------------------
// Aggregation
// ---------------------------------------------------------------------------

// Scenario E: two check-ins on one day, one of them checked out the same
// day, yields a single bucket with totalIn=2, totalOut=1.
func TestStatsByPeriod_DayBuckets(t *testing.T) {
	f := newFixture(&stubRecognizer{}, domain.DefaultSlotPolicy())
	ctx := context.Background()

	day := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	out := day.Add(4 * time.Hour)
	f.sessions.sessions = []*domain.ParkingSession{
		{ID: "s1", UserID: "u1", LicensePlate: "51A-1", CheckinTime: day, CheckoutTime: &out, Status: domain.SessionOut},
		{ID: "s2", UserID: "u2", LicensePlate: "51A-2", CheckinTime: day.Add(time.Hour), Status: domain.SessionIn},
	}

	stats, err := f.svc.StatsByPeriod(ctx, domain.PeriodDay)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stats) != 1 {
		t.Fatalf("expected 1 bucket, got %d", len(stats))
	}
	if stats[0].Label != "2026-08-30" {
		t.Errorf("label = %q", stats[0].Label)
	}
	if stats[0].TotalIn != 2 || stats[0].TotalOut != 1 {
		t.Errorf("bucket = %+v, want totalIn=2 totalOut=1", stats[0])
	}
}

// A session checked in on one day and out on another contributes to two
// different buckets.
func TestStatsByPeriod_CrossDaySessionSplitsBuckets(t *testing.T) {
	f := newFixture(&stubRecognizer{}, domain.DefaultSlotPolicy())

	in := time.Date(2026, 8, 30, 23, 0, 0, 0, time.UTC)
	out := time.Date(2026, 8, 31, 1, 0, 0, 0, time.UTC)
	f.sessions.sessions = []*domain.ParkingSession{
		{ID: "s1", UserID: "u1", LicensePlate: "51A-1", CheckinTime: in, CheckoutTime: &out, Status: domain.SessionOut},
	}

	stats, err := f.svc.StatsByPeriod(context.Background(), domain.PeriodDay)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(stats))
	}
	if stats[0].Label != "2026-08-30" || stats[0].TotalIn != 1 || stats[0].TotalOut != 0 {
		t.Errorf("first bucket = %+v", stats[0])
	}
	if stats[1].Label != "2026-08-31" || stats[1].TotalIn != 0 || stats[1].TotalOut != 1 {
		t.Errorf("second bucket = %+v", stats[1])
	}
}

func TestStatsByPeriod_InvalidPeriod(t *testing.T) {
	f := newFixture(&stubRecognizer{}, domain.DefaultSlotPolicy())
	if _, err := f.svc.StatsByPeriod(context.Background(), domain.Period("WEEK")); err == nil {
		t.Fatal("expected error for unknown period")
	}
}
