// Package memory is an in-process implementation of booking.Store.  Handler
// and service tests run against it instead of MySQL.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/facility-booking/internal/model"
	"github.com/iliyamo/facility-booking/internal/repository"
)

// Store keeps facilities and reservations in maps guarded by one mutex.
// Holding the mutex for the whole guard-and-write sequence gives the same
// atomicity the MySQL store gets from row locks.
type Store struct {
	mu           sync.Mutex
	facilities   map[uint64]model.Facility
	reservations map[uint64]model.Reservation
	accounts     map[uint64]string
	nextFacility uint64
	nextBooking  uint64
	now          func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		facilities:   make(map[uint64]model.Facility),
		reservations: make(map[uint64]model.Reservation),
		accounts:     make(map[uint64]string),
		now:          time.Now,
	}
}

// SetAccountName records a display name used in reservation listings.
func (s *Store) SetAccountName(id uint64, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[id] = name
}

// PutReservation stores r as is, assigning an id when r.ID is zero.  It
// bypasses every guard and exists to seed fixtures.
func (s *Store) PutReservation(r model.Reservation) model.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == 0 {
		s.nextBooking++
		r.ID = s.nextBooking
	} else if r.ID > s.nextBooking {
		s.nextBooking = r.ID
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now()
	}
	s.reservations[r.ID] = r
	return r
}

func (s *Store) GetFacility(_ context.Context, id uint64) (model.Facility, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.facilities[id]
	if !ok {
		return model.Facility{}, repository.ErrNotFound
	}
	return f, nil
}

func (s *Store) ListFacilities(_ context.Context) ([]model.Facility, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Facility, 0, len(s.facilities))
	for _, f := range s.facilities {
		out = append(out, f)
	}
	sortFacilities(out)
	return out, nil
}

func (s *Store) FacilitySummaries(_ context.Context) ([]model.FacilitySummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byID := make(map[uint64]*model.FacilitySummary, len(s.facilities))
	out := make([]model.FacilitySummary, 0, len(s.facilities))
	for _, f := range s.facilities {
		out = append(out, model.FacilitySummary{Facility: f})
	}
	sort.Slice(out, func(i, j int) bool { return lessFacility(out[i].Facility, out[j].Facility) })
	for i := range out {
		byID[out[i].ID] = &out[i]
	}
	for _, r := range s.reservations {
		sum, ok := byID[r.FacilityID]
		if !ok {
			continue
		}
		switch r.Status {
		case model.StatusPending:
			sum.Pending++
		case model.StatusApproved:
			sum.Approved++
		}
	}
	return out, nil
}

func (s *Store) CreateFacility(_ context.Context, f *model.Facility) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextFacility++
	f.ID = s.nextFacility
	f.CreatedAt = s.now()
	s.facilities[f.ID] = *f
	return nil
}

func (s *Store) DeleteFacilityCascade(_ context.Context, id uint64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.facilities[id]; !ok {
		return 0, repository.ErrNotFound
	}
	var removed int64
	for rid, r := range s.reservations {
		if r.FacilityID == id {
			delete(s.reservations, rid)
			removed++
		}
	}
	delete(s.facilities, id)
	return removed, nil
}

func (s *Store) GetReservation(_ context.Context, id uint64) (model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		return model.Reservation{}, repository.ErrNotFound
	}
	return r, nil
}

func (s *Store) ListReservations(_ context.Context, filter model.ReservationFilter) ([]model.ReservationDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.ReservationDetail, 0)
	for _, r := range s.reservations {
		f, ok := s.facilities[r.FacilityID]
		if !ok {
			continue
		}
		if filter.AccountID != 0 && r.AccountID != filter.AccountID {
			continue
		}
		if filter.FacilityID != 0 && r.FacilityID != filter.FacilityID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		out = append(out, model.ReservationDetail{
			Reservation:      r,
			FacilityName:     f.Name,
			FacilityCapacity: f.Capacity,
			AccountName:      s.accounts[r.AccountID],
		})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.ID < b.ID
	})
	return out, nil
}

func (s *Store) ListApproved(_ context.Context, facilityID uint64, date string) ([]model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.approvedLocked(facilityID, date, 0), nil
}

func (s *Store) CreateReservation(_ context.Context, r *model.Reservation, guard repository.AdmissionGuard) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.facilities[r.FacilityID]
	if !ok {
		return repository.ErrNotFound
	}
	if guard != nil {
		if err := guard(f, s.approvedLocked(f.ID, r.Date, 0)); err != nil {
			return err
		}
	}
	s.nextBooking++
	r.ID = s.nextBooking
	r.CreatedAt = s.now()
	s.reservations[r.ID] = *r
	return nil
}

func (s *Store) DecideReservation(_ context.Context, id uint64, to model.Status, guard repository.DecisionGuard) (model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		return model.Reservation{}, repository.ErrNotFound
	}
	f, ok := s.facilities[r.FacilityID]
	if !ok {
		return model.Reservation{}, repository.ErrNotFound
	}
	if guard != nil {
		if err := guard(r, f, s.approvedLocked(f.ID, r.Date, r.ID)); err != nil {
			return model.Reservation{}, err
		}
	}
	if r.Status != model.StatusPending {
		return model.Reservation{}, repository.ErrConflict
	}
	r.Status = to
	s.reservations[id] = r
	return r, nil
}

func (s *Store) DeleteReservation(_ context.Context, id uint64, guard repository.CancelGuard) (model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		return model.Reservation{}, repository.ErrNotFound
	}
	if guard != nil {
		if err := guard(r); err != nil {
			return model.Reservation{}, err
		}
	}
	delete(s.reservations, id)
	return r, nil
}

// approvedLocked returns approved reservations for the facility and date,
// excluding the id skip.  Callers hold s.mu.
func (s *Store) approvedLocked(facilityID uint64, date string, skip uint64) []model.Reservation {
	var out []model.Reservation
	for _, r := range s.reservations {
		if r.ID == skip || r.FacilityID != facilityID || r.Date != date || r.Status != model.StatusApproved {
			continue
		}
		out = append(out, r)
	}
	return out
}

func sortFacilities(fs []model.Facility) {
	sort.Slice(fs, func(i, j int) bool { return lessFacility(fs[i], fs[j]) })
}

func lessFacility(a, b model.Facility) bool {
	an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name)
	if an != bn {
		return an < bn
	}
	return a.ID < b.ID
}
