package domain

import "time"

// Role classifies an actor in the system.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleEmployee Role = "EMPLOYEE"
	RoleGuest    Role = "GUEST"
)

// VehicleType is the class of vehicle a user drives. Empty means unknown.
type VehicleType string

const (
	VehicleCar  VehicleType = "CAR"
	VehicleBike VehicleType = "BIKE"
)

// IsValid reports whether vt is one of the two known vehicle classes.
func (vt VehicleType) IsValid() bool {
	return vt == VehicleCar || vt == VehicleBike
}

// GuestFullName is the display name stamped on implicitly created guests.
const GuestFullName = "Khách vãng lai"

// User models a registered employee/admin or an ephemeral guest.
// Guests carry no password hash; they are created by the entry flow when no
// roster match is found and deleted shortly after a matching exit.
type User struct {
	ID             string      `json:"id" bson:"_id,omitempty"`
	FullName       string      `json:"fullName" bson:"full_name"`
	Email          string      `json:"email" bson:"email"`
	PasswordHash   string      `json:"-" bson:"password_hash,omitempty"`
	FaceEmbeddings [][]float64 `json:"-" bson:"face_embeddings,omitempty"`
	LicensePlates  []string    `json:"licensePlates" bson:"license_plates,omitempty"`
	Role           Role        `json:"role" bson:"role"`
	VehicleType    VehicleType `json:"vehicleType,omitempty" bson:"vehicle_type,omitempty"`
	CreatedAt      time.Time   `json:"createdAt" bson:"created_at"`
	UpdatedAt      time.Time   `json:"updatedAt" bson:"updated_at"`
}

// IsGuest reports whether the user was created implicitly by the entry flow.
func (u *User) IsGuest() bool {
	return u.Role == RoleGuest
}
