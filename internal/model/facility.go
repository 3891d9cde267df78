package model

import "time"

// Facility is a bookable asset such as a meeting room or a piece of
// equipment.  Capacity is the maximum number of approved reservations that
// may be active at the same instant.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – human readable label, unique by convention only.
//  Capacity  – concurrent approved occupants, at least 1.
//  CreatedAt – creation timestamp.
type Facility struct {
	ID        uint64    `json:"id"`         // facilities.id
	Name      string    `json:"name"`       // facilities.name
	Capacity  int       `json:"capacity"`   // facilities.capacity
	CreatedAt time.Time `json:"created_at"` // facilities.created_at
}

// FacilitySummary adds per-status booking counts to a facility for the
// management dashboard.
type FacilitySummary struct {
	Facility
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
}
