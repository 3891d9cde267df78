// Package repository defines the MySQL stores for accounts, refresh tokens,
// facilities and reservations, together with the sentinel errors and guard
// callbacks shared by every store implementation.  Higher layers use the
// sentinels to tell "row missing" apart from "row changed underneath us".
package repository

import (
	"errors"

	"github.com/iliyamo/facility-booking/internal/model"
)

// ErrNotFound is returned when the referenced facility, reservation or
// account does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a conditional write found the row in a
// different state than the one it was conditioned on, for example a status
// update on a reservation that was already decided by someone else.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned when signing up with an address already in use.
var ErrEmailExists = errors.New("email already exists")

// AdmissionGuard is called by CreateReservation while the facility is
// locked.  approved holds every approved reservation of the facility on the
// new reservation's date.  A non-nil error aborts the insert and is returned
// unchanged.
type AdmissionGuard func(f model.Facility, approved []model.Reservation) error

// DecisionGuard is called by DecideReservation while the reservation and its
// facility are locked.  approved holds the other approved reservations of
// the facility on the target's date.  A non-nil error aborts the update and
// is returned unchanged.
type DecisionGuard func(target model.Reservation, f model.Facility, approved []model.Reservation) error

// CancelGuard is called by DeleteReservation while the reservation is
// locked.  A non-nil error aborts the delete and is returned unchanged.
type CancelGuard func(target model.Reservation) error
