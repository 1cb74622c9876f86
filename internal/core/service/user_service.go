package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/auragate/parking-backend/internal/core/domain"
	"github.com/auragate/parking-backend/internal/core/ports"
)

// UserService implements registration, login and roster management.
// Registration of non-admin roles requires face and plate captures, whose
// features are extracted before the user is stored.
type UserService struct {
	users      ports.UserRepository
	recognizer ports.Recognizer
	jwtSecret  string
	tokenTTL   time.Duration
	logger     zerolog.Logger
}

func NewUserService(users ports.UserRepository, recognizer ports.Recognizer, jwtSecret string, tokenTTL time.Duration, logger zerolog.Logger) *UserService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &UserService{
		users:      users,
		recognizer: recognizer,
		jwtSecret:  jwtSecret,
		tokenTTL:   tokenTTL,
		logger:     logger,
	}
}

// Register creates an ADMIN or EMPLOYEE account. Employees must present face
// and plate captures; admins may register without biometrics.
func (s *UserService) Register(ctx context.Context, input ports.RegisterInput) (*domain.User, error) {
	role := domain.Role(input.Role)
	if role == "" {
		role = domain.RoleEmployee
	}

	if existing, err := s.users.FindByEmail(ctx, input.Email); err == nil && existing != nil {
		return nil, fmt.Errorf("register %s: %w", input.Email, domain.ErrUserExists)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	var embeddings [][]float64
	var plates []string
	if role != domain.RoleAdmin {
		features, extractErr := s.recognizer.ExtractFeatures(ctx, input.FaceImages, input.PlateImage)
		if extractErr != nil {
			return nil, extractErr
		}
		if !features.FaceFound || !features.PlateFound || len(features.Embeddings) == 0 {
			return nil, fmt.Errorf("register: %w", domain.ErrRecognitionFailed)
		}
		embeddings = features.Embeddings
		plates = []string{features.PlateText}
	}

	now := time.Now().UTC()
	user := &domain.User{
		FullName:       input.FullName,
		Email:          input.Email,
		PasswordHash:   string(hash),
		FaceEmbeddings: embeddings,
		LicensePlates:  plates,
		Role:           role,
		VehicleType:    domain.VehicleType(input.VehicleType),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", created.ID).Str("role", string(role)).Msg("user registered")
	return created, nil
}

// Login verifies credentials and issues an HS256 token carrying id and role.
func (s *UserService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	if email == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	claims := jwt.MapClaims{
		"id":   user.ID,
		"role": string(user.Role),
		"exp":  time.Now().Add(s.tokenTTL).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", nil, fmt.Errorf("login: sign token: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID).Msg("user logged in")
	return token, user, nil
}

// Me returns the authenticated user's record.
func (s *UserService) Me(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	return s.users.FindByID(ctx, userID)
}

// AllUsers returns the full roster, guests included.
func (s *UserService) AllUsers(ctx context.Context) ([]*domain.User, error) {
	return s.users.FindAll(ctx)
}

// Employees returns registered staff (EMPLOYEE and ADMIN).
func (s *UserService) Employees(ctx context.Context) ([]*domain.User, error) {
	return s.users.FindByRoles(ctx, domain.RoleEmployee, domain.RoleAdmin)
}

// Update applies a partial update; a new password is re-hashed.
func (s *UserService) Update(ctx context.Context, userID string, input ports.UpdateUserInput) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.FullName != nil {
		user.FullName = *input.FullName
	}
	if input.Email != nil {
		user.Email = *input.Email
	}
	if input.Password != nil {
		hash, hashErr := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if hashErr != nil {
			return nil, fmt.Errorf("update user: hash password: %w", hashErr)
		}
		user.PasswordHash = string(hash)
	}
	if input.LicensePlates != nil {
		user.LicensePlates = input.LicensePlates
	}
	if input.Role != nil {
		user.Role = domain.Role(*input.Role)
	}
	user.UpdatedAt = time.Now().UTC()

	return s.users.Update(ctx, user)
}

// Delete removes a user record.
func (s *UserService) Delete(ctx context.Context, userID string) error {
	return s.users.Delete(ctx, userID)
}
