package model

import "time"

// Status is the lifecycle state of a reservation.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// IsDecision reports whether s is a status a privileged account may assign
// to a pending reservation.
func (s Status) IsDecision() bool { return s == StatusApproved || s == StatusRejected }

// Reservation records a request to occupy one unit of a facility's capacity
// for the half-open interval [Start, End) on Date.  Reservations are never
// edited in place: only the status changes, or the row is deleted.
//
// Fields:
//  ID         – primary key identifier.
//  FacilityID – facility being booked.
//  AccountID  – owner of the reservation.
//  Date       – calendar day as YYYY-MM-DD, compared as an opaque key.
//  Start      – wall clock start as HH:MM.
//  End        – wall clock end as HH:MM, same day, after Start.
//  Status     – pending, approved or rejected.
//  CreatedAt  – creation timestamp.
type Reservation struct {
	ID         uint64    `json:"id"`          // reservations.id
	FacilityID uint64    `json:"facility_id"` // reservations.facility_id
	AccountID  uint64    `json:"account_id"`  // reservations.account_id
	Date       string    `json:"date"`        // reservations.date
	Start      string    `json:"start_time"`  // reservations.start_time
	End        string    `json:"end_time"`    // reservations.end_time
	Status     Status    `json:"status"`      // reservations.status
	CreatedAt  time.Time `json:"created_at"`  // reservations.created_at
}

// ReservationDetail is a reservation joined with the facility and owner
// names, used by list endpoints.
type ReservationDetail struct {
	Reservation
	FacilityName     string `json:"facility_name"`
	FacilityCapacity int    `json:"facility_capacity"`
	AccountName      string `json:"account_name"`
}

// ReservationFilter narrows a reservation listing.  Zero values mean "any".
type ReservationFilter struct {
	AccountID  uint64
	FacilityID uint64
	Status     Status
}
