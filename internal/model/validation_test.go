package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "00:00", want: 0},
		{in: "09:30", want: 570},
		{in: "23:59", want: 1439},
		{in: "24:00", want: 1440},
		{in: "14:00:00", want: 840},
		{in: " 08:15 ", want: 495},
		{in: "24:01", wantErr: true},
		{in: "9:30", wantErr: true},
		{in: "09:60", wantErr: true},
		{in: "09:30:15", wantErr: true},
		{in: "ab:cd", wantErr: true},
		{in: "+9:00", wantErr: true},
		{in: "-0:30", wantErr: true},
		{in: "09:+5", wantErr: true},
		{in: "1_:00", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeClock(t *testing.T) {
	assert.Equal(t, "09:00", NormalizeClock("09:00:00"))
	assert.Equal(t, "garbage", NormalizeClock("garbage"))
	assert.Equal(t, "07:05", FormatClock(425))
}

func TestValidateFacility(t *testing.T) {
	name, err := ValidateFacility("  Room A ", 3)
	require.NoError(t, err)
	assert.Equal(t, "Room A", name)

	_, err = ValidateFacility("   ", 3)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "name", verr.Field)

	_, err = ValidateFacility("Room A", 0)
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "capacity", verr.Field)
}

func TestBookingInputValidate(t *testing.T) {
	ok := BookingInput{FacilityID: 1, Date: "2025-03-01", Start: "09:00", End: "10:00"}

	got, err := ok.Validate()
	require.NoError(t, err)
	assert.Equal(t, ok, got)

	normalized, err := BookingInput{FacilityID: 1, Date: " 2025-03-01", Start: "09:00:00", End: "24:00"}.Validate()
	require.NoError(t, err)
	assert.Equal(t, "2025-03-01", normalized.Date)
	assert.Equal(t, "09:00", normalized.Start)
	assert.Equal(t, "24:00", normalized.End)

	tests := []struct {
		name  string
		in    BookingInput
		field string
	}{
		{"missing facility", BookingInput{Date: "2025-03-01", Start: "09:00", End: "10:00"}, "facility_id"},
		{"missing date", BookingInput{FacilityID: 1, Start: "09:00", End: "10:00"}, "date"},
		{"missing start", BookingInput{FacilityID: 1, Date: "2025-03-01", End: "10:00"}, "start_time"},
		{"missing end", BookingInput{FacilityID: 1, Date: "2025-03-01", Start: "09:00"}, "end_time"},
		{"bad date", BookingInput{FacilityID: 1, Date: "01/03/2025", Start: "09:00", End: "10:00"}, "date"},
		{"start at midnight end", BookingInput{FacilityID: 1, Date: "2025-03-01", Start: "24:00", End: "24:00"}, "start_time"},
		{"equal times", BookingInput{FacilityID: 1, Date: "2025-03-01", Start: "10:00", End: "10:00"}, "end_time"},
		{"reversed times", BookingInput{FacilityID: 1, Date: "2025-03-01", Start: "11:00", End: "10:00"}, "end_time"},
		{"signed start", BookingInput{FacilityID: 1, Date: "2025-03-01", Start: "+9:00", End: "10:00"}, "start_time"},
		{"signed end", BookingInput{FacilityID: 1, Date: "2025-03-01", Start: "09:00", End: "-0:30"}, "end_time"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.in.Validate()
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestStatusAndRole(t *testing.T) {
	assert.True(t, StatusPending.Valid())
	assert.False(t, Status("cancelled").Valid())
	assert.True(t, StatusApproved.IsDecision())
	assert.True(t, StatusRejected.IsDecision())
	assert.False(t, StatusPending.IsDecision())

	assert.True(t, RolePrivileged.IsPrivileged())
	assert.False(t, RoleRegular.IsPrivileged())
	assert.False(t, Role("admin").Valid())
	assert.True(t, Actor{ID: 1, Role: RolePrivileged}.Privileged())
}
