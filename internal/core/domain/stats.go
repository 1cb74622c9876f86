package domain

// GuestCounters is the persisted singleton tracking guest traffic only.
// Registered employees never touch these counters on entry; see SlotPolicy
// for the exit-side gating.
type GuestCounters struct {
	ID     string `bson:"_id,omitempty"`
	CarIn  int64  `bson:"car_in"`
	BikeIn int64  `bson:"bike_in"`
}

// ParkingStats is the live occupancy view computed from IN sessions joined
// to their owners' vehicle class. It is deliberately independent from
// GuestCounters: one counts everything currently inside, the other only
// accumulates guest entries/exits.
type ParkingStats struct {
	TotalCarSlots  int `json:"totalCarSlots"`
	CarIn          int `json:"carIn"`
	CarAvailable   int `json:"carAvailable"`
	TotalBikeSlots int `json:"totalBikeSlots"`
	BikeIn         int `json:"bikeIn"`
	BikeAvailable  int `json:"bikeAvailable"`
}

// SlotPolicy controls which traffic adjusts the persisted guest counters.
// The defaults reproduce the historical asymmetry: increments happen only
// for guests with a vehicle-class hint, decrements happen for any session
// whose snapshot carries a known vehicle class.
type SlotPolicy struct {
	// IncrementGuestOnly gates the entry-side +1 on the resolved user
	// having the GUEST role.
	IncrementGuestOnly bool
	// DecrementGuestOnly gates the exit-side -1 on the session owner
	// having the GUEST role. False matches the original behavior where
	// any typed session decrements.
	DecrementGuestOnly bool
}

// DefaultSlotPolicy preserves the asymmetric legacy gating.
func DefaultSlotPolicy() SlotPolicy {
	return SlotPolicy{IncrementGuestOnly: true, DecrementGuestOnly: false}
}
