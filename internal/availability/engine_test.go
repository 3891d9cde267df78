package availability

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/facility-booking/internal/model"
)

const day = "2025-03-01"

func facility(capacity int) model.Facility {
	return model.Facility{ID: 7, Name: "Hall", Capacity: capacity}
}

func res(id uint64, start, end string, status model.Status) model.Reservation {
	return model.Reservation{ID: id, FacilityID: 7, AccountID: 100, Date: day, Start: start, End: end, Status: status}
}

func candidate(t *testing.T, start, end string) Candidate {
	t.Helper()
	c, err := NewCandidate(7, day, start, end)
	require.NoError(t, err)
	return c
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"identical", Interval{540, 600}, Interval{540, 600}, true},
		{"partial", Interval{540, 600}, Interval{570, 630}, true},
		{"contained", Interval{540, 720}, Interval{600, 630}, true},
		{"adjacent after", Interval{540, 600}, Interval{600, 660}, false},
		{"adjacent before", Interval{600, 660}, Interval{540, 600}, false},
		{"disjoint", Interval{540, 600}, Interval{700, 760}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(tt.a, tt.b))
			assert.Equal(t, tt.want, Overlaps(tt.b, tt.a), "overlap must be symmetric")
		})
	}
}

func TestEvaluate_EmptyFacility(t *testing.T) {
	v := Evaluate(facility(1), candidate(t, "09:00", "10:00"), nil)
	assert.True(t, v.Available)
	assert.False(t, v.TimeOverlap)
	assert.Equal(t, 0, v.Booked)
	assert.Equal(t, 1, v.Remaining)
	assert.Equal(t, 1, v.TotalCapacity)
	assert.Empty(t, v.Conflicts)
}

func TestEvaluate_SingleSlotTaken(t *testing.T) {
	existing := []model.Reservation{res(1, "09:00", "10:00", model.StatusApproved)}
	v := Evaluate(facility(1), candidate(t, "09:30", "10:30"), existing)
	assert.True(t, v.TimeOverlap)
	assert.False(t, v.Available)
	assert.Equal(t, 0, v.Remaining)
	assert.Equal(t, []uint64{1}, v.Conflicts)
}

func TestEvaluate_OverlapWithSlotsLeft(t *testing.T) {
	existing := []model.Reservation{
		res(1, "14:00", "15:00", model.StatusApproved),
		res(2, "14:00", "15:00", model.StatusApproved),
	}
	v := Evaluate(facility(3), candidate(t, "14:30", "15:30"), existing)
	assert.Equal(t, 2, v.Booked)
	assert.Equal(t, 1, v.Remaining)
	assert.True(t, v.Available)
	assert.True(t, v.TimeOverlap)

	assert.False(t, Strict.Admits(v))
	assert.True(t, CapacityOnly.Admits(v))
}

func TestEvaluate_AdjacentIsNotOverlap(t *testing.T) {
	existing := []model.Reservation{
		res(1, "09:00", "10:00", model.StatusApproved),
		res(2, "11:00", "12:00", model.StatusApproved),
	}
	v := Evaluate(facility(1), candidate(t, "10:00", "11:00"), existing)
	assert.True(t, v.Available)
	assert.False(t, v.TimeOverlap)
	assert.Equal(t, 1, v.Remaining)
}

func TestEvaluate_IgnoresNonApprovedAndOtherKeys(t *testing.T) {
	other := res(5, "09:00", "10:00", model.StatusApproved)
	other.FacilityID = 8
	otherDay := res(6, "09:00", "10:00", model.StatusApproved)
	otherDay.Date = "2025-03-02"

	existing := []model.Reservation{
		res(1, "09:00", "10:00", model.StatusPending),
		res(2, "09:00", "10:00", model.StatusRejected),
		other,
		otherDay,
		res(9, "bogus", "10:00", model.StatusApproved),
	}
	v := Evaluate(facility(2), candidate(t, "09:00", "10:00"), existing)
	assert.Equal(t, 0, v.Booked)
	assert.Equal(t, 2, v.Remaining)
	assert.True(t, v.Available)
	assert.False(t, v.TimeOverlap)
}

func TestEvaluate_OverCapacityGoesNegative(t *testing.T) {
	existing := []model.Reservation{
		res(1, "09:00", "10:00", model.StatusApproved),
		res(2, "09:00", "10:00", model.StatusApproved),
	}
	v := Evaluate(facility(1), candidate(t, "09:15", "09:45"), existing)
	assert.Equal(t, -1, v.Remaining)
	assert.False(t, v.Available)
}

func TestEvaluate_DisjointApprovedKeepsFullCapacity(t *testing.T) {
	for capacity := 1; capacity <= 4; capacity++ {
		existing := []model.Reservation{
			res(1, "08:00", "09:00", model.StatusApproved),
			res(2, "09:00", "10:00", model.StatusApproved),
			res(3, "12:00", "13:00", model.StatusApproved),
		}
		v := Evaluate(facility(capacity), candidate(t, "10:00", "12:00"), existing)
		assert.True(t, v.Available)
		assert.False(t, v.TimeOverlap)
		assert.Equal(t, capacity, v.Remaining)
	}
}

func TestEvaluate_OrderIndependentAndDeterministic(t *testing.T) {
	existing := []model.Reservation{
		res(1, "08:00", "09:30", model.StatusApproved),
		res(2, "09:00", "10:00", model.StatusApproved),
		res(3, "09:45", "11:00", model.StatusApproved),
		res(4, "10:30", "12:00", model.StatusPending),
		res(5, "11:00", "12:00", model.StatusApproved),
		res(6, "07:00", "08:00", model.StatusApproved),
	}
	c := candidate(t, "09:15", "11:00")
	want := Evaluate(facility(5), c, existing)
	assert.Equal(t, []uint64{1, 2, 3}, want.Conflicts)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		shuffled := append([]model.Reservation(nil), existing...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, Evaluate(facility(5), c, shuffled))
	}
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, Strict, p)

	p, err = ParsePolicy(" Capacity ")
	require.NoError(t, err)
	assert.Equal(t, CapacityOnly, p)

	_, err = ParsePolicy("lenient")
	assert.Error(t, err)
}

func TestPolicyAdmits(t *testing.T) {
	free := Verdict{Available: true, Remaining: 2, TotalCapacity: 2}
	full := Verdict{Available: false, Remaining: 0, TotalCapacity: 1, Booked: 1, TimeOverlap: true}

	assert.True(t, Strict.Admits(free))
	assert.True(t, CapacityOnly.Admits(free))
	assert.False(t, Strict.Admits(full))
	assert.False(t, CapacityOnly.Admits(full))
}
