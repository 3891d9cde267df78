// Package booking implements the reservation lifecycle: admitting booking
// requests, approving or rejecting them, cancelling them and managing the
// facility catalog.  The persisted rows are the only source of truth; every
// operation reads what it needs from the Store and keeps nothing between
// calls.
package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/facility-booking/internal/availability"
	"github.com/iliyamo/facility-booking/internal/model"
	"github.com/iliyamo/facility-booking/internal/queue"
	"github.com/iliyamo/facility-booking/internal/repository"
)

// Store is the persistence contract the service needs.  CreateReservation,
// DecideReservation and DeleteReservation must run their guard and the write
// atomically with respect to other writes on the same rows.
type Store interface {
	GetFacility(ctx context.Context, id uint64) (model.Facility, error)
	ListFacilities(ctx context.Context) ([]model.Facility, error)
	FacilitySummaries(ctx context.Context) ([]model.FacilitySummary, error)
	CreateFacility(ctx context.Context, f *model.Facility) error
	DeleteFacilityCascade(ctx context.Context, id uint64) (int64, error)

	GetReservation(ctx context.Context, id uint64) (model.Reservation, error)
	ListReservations(ctx context.Context, filter model.ReservationFilter) ([]model.ReservationDetail, error)
	ListApproved(ctx context.Context, facilityID uint64, date string) ([]model.Reservation, error)
	CreateReservation(ctx context.Context, r *model.Reservation, guard repository.AdmissionGuard) error
	DecideReservation(ctx context.Context, id uint64, to model.Status, guard repository.DecisionGuard) (model.Reservation, error)
	DeleteReservation(ctx context.Context, id uint64, guard repository.CancelGuard) (model.Reservation, error)
}

// EventPublisher delivers lifecycle events to the broker.
type EventPublisher interface {
	PublishBookingEvent(ctx context.Context, ev queue.BookingEvent) error
}

// Service orchestrates the availability engine and the store.
type Service struct {
	store  Store
	events EventPublisher
	policy availability.Policy
	log    logrus.FieldLogger
	now    func() time.Time
}

// NewService builds a Service.  events may be nil, in which case no events
// are published.  A nil logger falls back to the logrus standard logger.
func NewService(store Store, events EventPublisher, policy availability.Policy, log logrus.FieldLogger) *Service {
	if store == nil {
		panic("nil store passed to booking.NewService")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	if policy == "" {
		policy = availability.Strict
	}
	return &Service{store: store, events: events, policy: policy, log: log, now: time.Now}
}

// Policy returns the admission policy in force.
func (s *Service) Policy() availability.Policy { return s.policy }

// Admission is the result of a successful booking request.
type Admission struct {
	Reservation model.Reservation    `json:"reservation"`
	Verdict     availability.Verdict `json:"verdict"`
}

// RequestBooking admits a new pending reservation for the actor.  The
// request is validated, then evaluated against the approved reservations of
// the facility and date while the store holds the facility lock.  Nothing is
// written unless the admission policy accepts the verdict.
func (s *Service) RequestBooking(ctx context.Context, actor model.Actor, in model.BookingInput) (Admission, error) {
	if actor.ID == 0 {
		return Admission{}, permissionErr("authentication required")
	}
	in, err := in.Validate()
	if err != nil {
		return Admission{}, validationErr(err)
	}
	cand, err := availability.NewCandidate(in.FacilityID, in.Date, in.Start, in.End)
	if err != nil {
		return Admission{}, validationErr(err)
	}

	r := model.Reservation{
		FacilityID: in.FacilityID,
		AccountID:  actor.ID,
		Date:       in.Date,
		Start:      in.Start,
		End:        in.End,
		Status:     model.StatusPending,
	}
	var verdict availability.Verdict
	err = s.store.CreateReservation(ctx, &r, func(f model.Facility, approved []model.Reservation) error {
		verdict = availability.Evaluate(f, cand, approved)
		if !verdict.Available {
			return &CapacityError{Reason: "facility is fully booked for the selected time period", Verdict: verdict}
		}
		if !s.policy.Admits(verdict) {
			return &CapacityError{Reason: "selected time period overlaps with existing bookings", Verdict: verdict}
		}
		return nil
	})
	if err != nil {
		return Admission{}, storeErr(err, "facility")
	}

	s.log.WithFields(logrus.Fields{
		"reservation_id": r.ID,
		"facility_id":    r.FacilityID,
		"account_id":     r.AccountID,
		"date":           r.Date,
		"start":          r.Start,
		"end":            r.End,
		"remaining":      verdict.Remaining,
	}).Info("booking request admitted")
	return Admission{Reservation: r, Verdict: verdict}, nil
}

// CheckAvailability evaluates a prospective booking without writing
// anything.  The boolean reports whether RequestBooking would currently
// admit it.
func (s *Service) CheckAvailability(ctx context.Context, in model.BookingInput) (availability.Verdict, bool, error) {
	in, err := in.Validate()
	if err != nil {
		return availability.Verdict{}, false, validationErr(err)
	}
	f, err := s.store.GetFacility(ctx, in.FacilityID)
	if err != nil {
		return availability.Verdict{}, false, storeErr(err, "facility")
	}
	approved, err := s.store.ListApproved(ctx, f.ID, in.Date)
	if err != nil {
		return availability.Verdict{}, false, err
	}
	cand, err := availability.NewCandidate(f.ID, in.Date, in.Start, in.End)
	if err != nil {
		return availability.Verdict{}, false, validationErr(err)
	}
	v := availability.Evaluate(f, cand, approved)
	return v, s.policy.Admits(v), nil
}

// Decide approves or rejects a pending reservation.  Only privileged actors
// may decide.  Approval re-evaluates capacity against the other approved
// reservations inside the store's decision guard, so two approvals racing
// for the last slot cannot both succeed.
func (s *Service) Decide(ctx context.Context, actor model.Actor, reservationID uint64, decision model.Status) (model.Reservation, error) {
	if !actor.Privileged() {
		return model.Reservation{}, permissionErr("only privileged accounts may approve or reject bookings")
	}
	if !decision.IsDecision() {
		return model.Reservation{}, validationErr(&model.ValidationError{Field: "status", Msg: "must be approved or rejected"})
	}

	var facility model.Facility
	updated, err := s.store.DecideReservation(ctx, reservationID, decision, func(target model.Reservation, f model.Facility, approved []model.Reservation) error {
		facility = f
		if target.Status != model.StatusPending {
			return fmt.Errorf("%w: reservation is already %s", ErrConflict, target.Status)
		}
		if decision != model.StatusApproved {
			return nil
		}
		cand, err := availability.NewCandidate(target.FacilityID, target.Date, target.Start, target.End)
		if err != nil {
			return validationErr(err)
		}
		v := availability.Evaluate(f, cand, approved)
		if !v.Available {
			return &CapacityError{Reason: "approving would exceed the facility capacity", Verdict: v}
		}
		return nil
	})
	if err != nil {
		return model.Reservation{}, storeErr(err, "reservation")
	}

	s.log.WithFields(logrus.Fields{
		"reservation_id": updated.ID,
		"facility_id":    updated.FacilityID,
		"status":         updated.Status,
		"actor_id":       actor.ID,
	}).Info("booking decided")
	s.publish(ctx, queue.BookingEvent{
		Type:          queue.EventBookingDecided,
		ReservationID: updated.ID,
		FacilityID:    updated.FacilityID,
		FacilityName:  facility.Name,
		AccountID:     updated.AccountID,
		ActorID:       actor.ID,
		Date:          updated.Date,
		Start:         updated.Start,
		End:           updated.End,
		Status:        string(updated.Status),
	})
	return updated, nil
}

// Cancel deletes a reservation.  Owners may cancel their own pending or
// approved reservations; privileged actors may cancel any reservation.  The
// rules are checked inside the store's cancel guard, so a decision that lands
// first is what the check sees.
func (s *Service) Cancel(ctx context.Context, actor model.Actor, reservationID uint64) error {
	if actor.ID == 0 {
		return permissionErr("authentication required")
	}
	r, err := s.store.DeleteReservation(ctx, reservationID, func(target model.Reservation) error {
		if actor.Privileged() {
			return nil
		}
		if target.AccountID != actor.ID {
			return permissionErr("reservation belongs to another account")
		}
		if target.Status != model.StatusPending && target.Status != model.StatusApproved {
			return permissionErr("only pending or approved reservations can be cancelled")
		}
		return nil
	})
	if err != nil {
		return storeErr(err, "reservation")
	}

	s.log.WithFields(logrus.Fields{
		"reservation_id": r.ID,
		"account_id":     r.AccountID,
		"actor_id":       actor.ID,
	}).Info("booking cancelled")
	s.publish(ctx, queue.BookingEvent{
		Type:          queue.EventBookingCancelled,
		ReservationID: r.ID,
		FacilityID:    r.FacilityID,
		AccountID:     r.AccountID,
		ActorID:       actor.ID,
		Date:          r.Date,
		Start:         r.Start,
		End:           r.End,
		Status:        string(r.Status),
	})
	return nil
}

// Reservation returns one reservation.  Regular actors only see their own;
// anyone else's is reported as not found.
func (s *Service) Reservation(ctx context.Context, actor model.Actor, reservationID uint64) (model.Reservation, error) {
	if actor.ID == 0 {
		return model.Reservation{}, permissionErr("authentication required")
	}
	r, err := s.store.GetReservation(ctx, reservationID)
	if err != nil {
		return model.Reservation{}, storeErr(err, "reservation")
	}
	if !actor.Privileged() && r.AccountID != actor.ID {
		return model.Reservation{}, storeErr(repository.ErrNotFound, "reservation")
	}
	return r, nil
}

// ListReservations returns reservations visible to the actor, ordered by
// date and start time.  Regular actors only ever see their own.  Rows whose
// facility no longer exists are never returned.
func (s *Service) ListReservations(ctx context.Context, actor model.Actor, filter model.ReservationFilter) ([]model.ReservationDetail, error) {
	if actor.ID == 0 {
		return nil, permissionErr("authentication required")
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, validationErr(&model.ValidationError{Field: "status", Msg: "unknown status"})
	}
	if !actor.Privileged() {
		filter.AccountID = actor.ID
	}
	items, err := s.store.ListReservations(ctx, filter)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.ReservationDetail{}
	}
	return items, nil
}

// PendingApprovals lists every pending reservation for a privileged actor.
func (s *Service) PendingApprovals(ctx context.Context, actor model.Actor) ([]model.ReservationDetail, error) {
	if !actor.Privileged() {
		return nil, permissionErr("only privileged accounts may review pending bookings")
	}
	return s.ListReservations(ctx, actor, model.ReservationFilter{Status: model.StatusPending})
}

func (s *Service) publish(ctx context.Context, ev queue.BookingEvent) {
	if s.events == nil {
		return
	}
	ev.OccurredAt = s.now().UTC().Format(time.RFC3339)
	if err := s.events.PublishBookingEvent(ctx, ev); err != nil {
		s.log.WithError(err).WithField("type", ev.Type).Warn("publish booking event failed")
	}
}
