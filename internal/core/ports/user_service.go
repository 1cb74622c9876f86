package ports

import (
	"context"

	"github.com/auragate/parking-backend/internal/core/domain"
)

// RegisterInput carries registration data. Non-admin roles must supply face
// and plate captures; their embeddings and plate text are extracted before
// the user is stored.
type RegisterInput struct {
	FullName    string   `validate:"required"`
	Email       string   `validate:"required,email"`
	Password    string   `validate:"required,min=8"`
	Role        string   `validate:"omitempty,oneof=ADMIN EMPLOYEE"`
	FaceImages  []string `validate:"-"`
	PlateImage  string   `validate:"-"`
	VehicleType string   `validate:"omitempty,oneof=CAR BIKE"`
}

// UpdateUserInput carries partial user updates; nil fields are left as-is.
type UpdateUserInput struct {
	FullName      *string
	Email         *string
	Password      *string
	LicensePlates []string
	Role          *string
}

// UserService covers registration, login and roster management.
type UserService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	Me(ctx context.Context, userID string) (*domain.User, error)
	AllUsers(ctx context.Context) ([]*domain.User, error)
	Employees(ctx context.Context) ([]*domain.User, error)
	Update(ctx context.Context, userID string, input UpdateUserInput) (*domain.User, error)
	Delete(ctx context.Context, userID string) error
}

// StatsService exposes the live occupancy view.
type StatsService interface {
	CurrentStats(ctx context.Context) (*domain.ParkingStats, error)
}
