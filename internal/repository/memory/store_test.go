package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/facility-booking/internal/model"
	"github.com/iliyamo/facility-booking/internal/repository"
)

func TestDecideReservationRequiresPending(t *testing.T) {
	ctx := context.Background()
	s := New()
	f := model.Facility{Name: "Hall", Capacity: 2}
	require.NoError(t, s.CreateFacility(ctx, &f))
	r := s.PutReservation(model.Reservation{FacilityID: f.ID, AccountID: 1, Date: "2024-05-01", Start: "09:00", End: "10:00", Status: model.StatusRejected})

	_, err := s.DecideReservation(ctx, r.ID, model.StatusApproved, nil)
	assert.ErrorIs(t, err, repository.ErrConflict)

	_, err = s.DecideReservation(ctx, r.ID+1, model.StatusApproved, nil)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestGuardSeesOnlyApprovedSameDay(t *testing.T) {
	ctx := context.Background()
	s := New()
	f := model.Facility{Name: "Hall", Capacity: 3}
	require.NoError(t, s.CreateFacility(ctx, &f))
	approved := s.PutReservation(model.Reservation{FacilityID: f.ID, AccountID: 1, Date: "2024-05-01", Start: "09:00", End: "10:00", Status: model.StatusApproved})
	s.PutReservation(model.Reservation{FacilityID: f.ID, AccountID: 1, Date: "2024-05-01", Start: "09:00", End: "10:00", Status: model.StatusPending})
	s.PutReservation(model.Reservation{FacilityID: f.ID, AccountID: 1, Date: "2024-05-02", Start: "09:00", End: "10:00", Status: model.StatusApproved})

	var seen []model.Reservation
	r := model.Reservation{FacilityID: f.ID, AccountID: 2, Date: "2024-05-01", Start: "09:30", End: "11:00", Status: model.StatusPending}
	err := s.CreateReservation(ctx, &r, func(_ model.Facility, list []model.Reservation) error {
		seen = list
		return nil
	})
	require.NoError(t, err)
	require.Len(t, seen, 1)
	assert.Equal(t, approved.ID, seen[0].ID)
	assert.NotZero(t, r.ID)

	// The target itself is left out of the approved list on decision.
	_, err = s.DecideReservation(ctx, approved.ID, model.StatusRejected, func(_ model.Reservation, _ model.Facility, list []model.Reservation) error {
		seen = list
		return repository.ErrConflict
	})
	assert.ErrorIs(t, err, repository.ErrConflict)
	assert.Empty(t, seen)
}

func TestCascadeAndOrdering(t *testing.T) {
	ctx := context.Background()
	s := New()
	b := model.Facility{Name: "beta", Capacity: 1}
	a := model.Facility{Name: "Alpha", Capacity: 1}
	require.NoError(t, s.CreateFacility(ctx, &b))
	require.NoError(t, s.CreateFacility(ctx, &a))

	fs, err := s.ListFacilities(ctx)
	require.NoError(t, err)
	require.Len(t, fs, 2)
	assert.Equal(t, "Alpha", fs[0].Name)

	s.PutReservation(model.Reservation{FacilityID: b.ID, AccountID: 1, Date: "2024-05-02", Start: "09:00", End: "10:00", Status: model.StatusPending})
	s.PutReservation(model.Reservation{FacilityID: b.ID, AccountID: 1, Date: "2024-05-01", Start: "11:00", End: "12:00", Status: model.StatusApproved})
	s.PutReservation(model.Reservation{FacilityID: a.ID, AccountID: 1, Date: "2024-05-01", Start: "08:00", End: "09:00", Status: model.StatusPending})

	list, err := s.ListReservations(ctx, model.ReservationFilter{})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "08:00", list[0].Start)
	assert.Equal(t, "2024-05-02", list[2].Date)

	removed, err := s.DeleteFacilityCascade(ctx, b.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)

	list, err = s.ListReservations(ctx, model.ReservationFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = s.DeleteFacilityCascade(ctx, b.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDeleteReservationGuard(t *testing.T) {
	ctx := context.Background()
	s := New()
	f := model.Facility{Name: "Hall", Capacity: 1}
	require.NoError(t, s.CreateFacility(ctx, &f))
	r := s.PutReservation(model.Reservation{FacilityID: f.ID, AccountID: 1, Date: "2024-05-01", Start: "09:00", End: "10:00", Status: model.StatusRejected})

	_, err := s.DeleteReservation(ctx, r.ID, func(target model.Reservation) error {
		assert.Equal(t, model.StatusRejected, target.Status)
		return repository.ErrConflict
	})
	assert.ErrorIs(t, err, repository.ErrConflict)
	_, err = s.GetReservation(ctx, r.ID)
	require.NoError(t, err, "a refused delete keeps the row")

	got, err := s.DeleteReservation(ctx, r.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, r.ID, got.ID)
	_, err = s.DeleteReservation(ctx, r.ID, nil)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
