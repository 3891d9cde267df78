// Package availability decides whether a candidate booking fits into a
// facility's capacity.  It performs no I/O: callers load the facility and
// the reservations they know about and pass them in.
package availability

import (
	"sort"

	"github.com/iliyamo/facility-booking/internal/model"
)

// Interval is a half-open span [Start, End) in minutes since midnight.
type Interval struct {
	Start int
	End   int
}

// Overlaps reports whether a and b intersect.  Adjacent intervals, where one
// ends exactly when the other starts, do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start < b.End && a.End > b.Start
}

// Candidate is the booking being evaluated.
type Candidate struct {
	FacilityID uint64
	Date       string
	Span       Interval
}

// NewCandidate parses HH:MM start and end values into a Candidate.  It does
// not check that start precedes end; that is the caller's job.
func NewCandidate(facilityID uint64, date, start, end string) (Candidate, error) {
	s, err := model.ParseClock(start)
	if err != nil {
		return Candidate{}, err
	}
	e, err := model.ParseClock(end)
	if err != nil {
		return Candidate{}, err
	}
	return Candidate{FacilityID: facilityID, Date: date, Span: Interval{Start: s, End: e}}, nil
}

// Verdict describes how a candidate relates to the approved reservations of
// its facility and date.
type Verdict struct {
	Available     bool     `json:"available"`
	Remaining     int      `json:"remaining"`
	TotalCapacity int      `json:"total_capacity"`
	Booked        int      `json:"booked"`
	TimeOverlap   bool     `json:"time_overlap"`
	Conflicts     []uint64 `json:"conflicts,omitempty"`
}

// Evaluate counts the approved reservations for the same facility and date
// that overlap the candidate.  Pending and rejected reservations never count.
// Remaining may be negative when stored data already exceeds capacity; such
// a verdict is simply unavailable.  The result does not depend on the order
// of existing.
func Evaluate(f model.Facility, c Candidate, existing []model.Reservation) Verdict {
	var conflicts []uint64
	for _, r := range existing {
		if r.FacilityID != c.FacilityID || r.Date != c.Date || r.Status != model.StatusApproved {
			continue
		}
		span, ok := spanOf(r)
		if !ok {
			continue
		}
		if Overlaps(c.Span, span) {
			conflicts = append(conflicts, r.ID)
		}
	}
	sort.Slice(conflicts, func(i, j int) bool { return conflicts[i] < conflicts[j] })

	booked := len(conflicts)
	remaining := f.Capacity - booked
	return Verdict{
		Available:     remaining > 0,
		Remaining:     remaining,
		TotalCapacity: f.Capacity,
		Booked:        booked,
		TimeOverlap:   booked > 0,
		Conflicts:     conflicts,
	}
}

// spanOf parses a stored reservation's interval.  Rows that cannot be parsed
// were never admitted through validation and are ignored.
func spanOf(r model.Reservation) (Interval, bool) {
	s, err := model.ParseClock(r.Start)
	if err != nil {
		return Interval{}, false
	}
	e, err := model.ParseClock(r.End)
	if err != nil {
		return Interval{}, false
	}
	return Interval{Start: s, End: e}, true
}
