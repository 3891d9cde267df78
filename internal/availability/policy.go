package availability

import (
	"fmt"
	"strings"
)

// Policy decides whether a verdict admits a new booking request.
type Policy string

const (
	// Strict admits only when a slot remains and nothing approved overlaps,
	// so a facility holds one booking per time window whatever its capacity.
	Strict Policy = "strict"
	// CapacityOnly admits whenever a slot remains.
	CapacityOnly Policy = "capacity"
)

// ParsePolicy maps a configuration value to a Policy.  The empty string
// selects Strict.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", Strict:
		return Strict, nil
	case CapacityOnly:
		return CapacityOnly, nil
	}
	return "", fmt.Errorf("unknown admission policy %q", s)
}

// Admits reports whether v allows a new pending reservation under p.
func (p Policy) Admits(v Verdict) bool {
	if !v.Available {
		return false
	}
	if p == CapacityOnly {
		return true
	}
	return !v.TimeOverlap
}
