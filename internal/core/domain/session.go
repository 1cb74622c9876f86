package domain

import "time"

// SessionStatus is the lifecycle state of a parking session.
type SessionStatus string

const (
	SessionIn  SessionStatus = "IN"
	SessionOut SessionStatus = "OUT"
)

// ParkingSession records one vehicle stay. Plate, display name and vehicle
// type are snapshotted at check-in so later user edits do not rewrite history.
// A session is never deleted; closing sets status OUT and the checkout time.
//
// Invariant: at most one IN session exists per license plate at any time,
// enforced by a partial unique index on the sessions collection.
type ParkingSession struct {
	ID           string        `json:"id" bson:"_id,omitempty"`
	UserID       string        `json:"-" bson:"user_id"`
	LicensePlate string        `json:"licensePlate" bson:"license_plate"`
	FaceIdentity string        `json:"faceIdentity" bson:"face_identity"`
	CheckinTime  time.Time     `json:"checkinTime" bson:"checkin_time"`
	CheckoutTime *time.Time    `json:"checkoutTime,omitempty" bson:"checkout_time,omitempty"`
	Status       SessionStatus `json:"status" bson:"status"`
	VehicleType  VehicleType   `json:"vehicleType,omitempty" bson:"vehicle_type,omitempty"`

	// User is populated by the service layer before returning the session.
	User *User `json:"user,omitempty" bson:"-"`
}

// IsActive reports whether the vehicle is still inside the lot.
func (s *ParkingSession) IsActive() bool {
	return s.Status == SessionIn
}

// Period is the bucketing granularity for entry/exit statistics.
type Period string

const (
	PeriodDay   Period = "DAY"
	PeriodMonth Period = "MONTH"
	PeriodYear  Period = "YEAR"
)

// LabelFormat returns the Go time layout used as the bucket label.
func (p Period) LabelFormat() (string, bool) {
	switch p {
	case PeriodDay:
		return "2006-01-02", true
	case PeriodMonth:
		return "2006-01", true
	case PeriodYear:
		return "2006", true
	default:
		return "", false
	}
}

// LogStats is one aggregation bucket: how many check-ins and check-outs fell
// on the label's calendar period. A session with both timestamps set
// contributes one IN event and one OUT event, bucketed independently.
type LogStats struct {
	Label    string `json:"label" bson:"label"`
	TotalIn  int    `json:"totalIn" bson:"totalIn"`
	TotalOut int    `json:"totalOut" bson:"totalOut"`
}
