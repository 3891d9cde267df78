// Package queue defines message payloads exchanged over the message broker
// together with the publisher and the audit-log consumer.
package queue

// Event types carried in BookingEvent.Type.
const (
	EventBookingDecided   = "booking.decided"
	EventBookingCancelled = "booking.cancelled"
	EventFacilityRemoved  = "facility.removed"
)

// BookingEvent is published after a reservation is approved, rejected or
// cancelled, and after a facility is removed together with its bookings.
// It carries enough context for downstream consumers to log or notify
// without querying the primary database.
type BookingEvent struct {
	Type                string `json:"type"`
	ReservationID       uint64 `json:"reservation_id,omitempty"`
	FacilityID          uint64 `json:"facility_id"`
	FacilityName        string `json:"facility_name,omitempty"`
	AccountID           uint64 `json:"account_id,omitempty"`
	ActorID             uint64 `json:"actor_id"`
	Date                string `json:"date,omitempty"`
	Start               string `json:"start_time,omitempty"`
	End                 string `json:"end_time,omitempty"`
	Status              string `json:"status,omitempty"`
	RemovedReservations int64  `json:"removed_reservations,omitempty"`
	OccurredAt          string `json:"occurred_at"`
}
