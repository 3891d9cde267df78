package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MinutesPerDay is the exclusive upper bound of a wall clock value, except
// that "24:00" is accepted as an end-of-day marker.
const MinutesPerDay = 24 * 60

// ValidationError reports a malformed field in a request.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return e.Field + ": " + e.Msg
}

func invalid(field, msg string) error { return &ValidationError{Field: field, Msg: msg} }

// ParseClock converts "HH:MM" (or "HH:MM:SS" with zero seconds, as MySQL
// TIME columns are rendered) into minutes since midnight.
func ParseClock(s string) (int, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	for _, p := range parts {
		if len(p) != 2 || !isDigit(p[0]) || !isDigit(p[1]) {
			return 0, fmt.Errorf("invalid time %q", s)
		}
	}
	h, errH := strconv.Atoi(parts[0])
	m, errM := strconv.Atoi(parts[1])
	if errH != nil || errM != nil || h < 0 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	if len(parts) == 3 && parts[2] != "00" {
		return 0, fmt.Errorf("invalid time %q: seconds are not supported", s)
	}
	total := h*60 + m
	if total > MinutesPerDay {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	return total, nil
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// NormalizeClock rewrites a parsable clock value into "HH:MM" and returns
// the input unchanged otherwise.
func NormalizeClock(s string) string {
	m, err := ParseClock(s)
	if err != nil {
		return s
	}
	return FormatClock(m)
}

// ParseDate checks that s is a calendar day in YYYY-MM-DD form.  The value
// is returned trimmed; no timezone conversion is ever applied.
func ParseDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if _, err := time.Parse(time.DateOnly, s); err != nil {
		return "", fmt.Errorf("invalid date %q", s)
	}
	return s, nil
}

// ValidateFacility checks the fields of a new facility and returns the
// trimmed name.
func ValidateFacility(name string, capacity int) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", invalid("name", "is required")
	}
	if capacity < 1 {
		return "", invalid("capacity", "must be at least 1")
	}
	return name, nil
}

// BookingInput is an unvalidated booking request as collected from a form.
type BookingInput struct {
	FacilityID uint64
	Date       string
	Start      string
	End        string
}

// Validate checks that every field is present, the date and times parse,
// and start is strictly before end.  It returns the input normalized to
// YYYY-MM-DD and HH:MM.
func (in BookingInput) Validate() (BookingInput, error) {
	if in.FacilityID == 0 {
		return in, invalid("facility_id", "is required")
	}
	if strings.TrimSpace(in.Date) == "" {
		return in, invalid("date", "is required")
	}
	if strings.TrimSpace(in.Start) == "" {
		return in, invalid("start_time", "is required")
	}
	if strings.TrimSpace(in.End) == "" {
		return in, invalid("end_time", "is required")
	}
	date, err := ParseDate(in.Date)
	if err != nil {
		return in, invalid("date", "must be YYYY-MM-DD")
	}
	start, err := ParseClock(in.Start)
	if err != nil || start >= MinutesPerDay {
		return in, invalid("start_time", "must be HH:MM")
	}
	end, err := ParseClock(in.End)
	if err != nil {
		return in, invalid("end_time", "must be HH:MM")
	}
	if start >= end {
		return in, invalid("end_time", "must be after start_time")
	}
	return BookingInput{
		FacilityID: in.FacilityID,
		Date:       date,
		Start:      FormatClock(start),
		End:        FormatClock(end),
	}, nil
}
