package booking

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/facility-booking/internal/model"
	"github.com/iliyamo/facility-booking/internal/queue"
)

// ListFacilities returns the catalog ordered by name.
func (s *Service) ListFacilities(ctx context.Context) ([]model.Facility, error) {
	items, err := s.store.ListFacilities(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.Facility{}
	}
	return items, nil
}

// FacilitySummaries returns the catalog with pending and approved counts.
func (s *Service) FacilitySummaries(ctx context.Context, actor model.Actor) ([]model.FacilitySummary, error) {
	if !actor.Privileged() {
		return nil, permissionErr("only privileged accounts may view facility summaries")
	}
	items, err := s.store.FacilitySummaries(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.FacilitySummary{}
	}
	return items, nil
}

// AddResource creates a facility.
func (s *Service) AddResource(ctx context.Context, actor model.Actor, name string, capacity int) (model.Facility, error) {
	if !actor.Privileged() {
		return model.Facility{}, permissionErr("only privileged accounts may add facilities")
	}
	name, err := model.ValidateFacility(name, capacity)
	if err != nil {
		return model.Facility{}, validationErr(err)
	}
	f := model.Facility{Name: name, Capacity: capacity}
	if err := s.store.CreateFacility(ctx, &f); err != nil {
		return model.Facility{}, err
	}
	s.log.WithFields(logrus.Fields{"facility_id": f.ID, "name": f.Name, "capacity": f.Capacity}).Info("facility added")
	return f, nil
}

// RemoveResource deletes a facility after deleting every reservation that
// references it.  It returns the number of reservations removed.
func (s *Service) RemoveResource(ctx context.Context, actor model.Actor, facilityID uint64) (int64, error) {
	if !actor.Privileged() {
		return 0, permissionErr("only privileged accounts may remove facilities")
	}
	f, err := s.store.GetFacility(ctx, facilityID)
	if err != nil {
		return 0, storeErr(err, "facility")
	}
	removed, err := s.store.DeleteFacilityCascade(ctx, facilityID)
	if err != nil {
		return 0, storeErr(err, "facility")
	}

	s.log.WithFields(logrus.Fields{
		"facility_id":          facilityID,
		"removed_reservations": removed,
		"actor_id":             actor.ID,
	}).Info("facility removed")
	s.publish(ctx, queue.BookingEvent{
		Type:                queue.EventFacilityRemoved,
		FacilityID:          facilityID,
		FacilityName:        f.Name,
		ActorID:             actor.ID,
		RemovedReservations: removed,
	})
	return removed, nil
}
