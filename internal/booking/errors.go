package booking

import (
	"errors"
	"fmt"

	"github.com/iliyamo/facility-booking/internal/availability"
	"github.com/iliyamo/facility-booking/internal/repository"
)

// Error kinds returned by Service.  Every error the service produces wraps
// exactly one of them; callers test with errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrCapacity   = errors.New("capacity exceeded")
	ErrPermission = errors.New("permission denied")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
)

// CapacityError is returned when admission or approval is refused by the
// availability check.  It carries the verdict so the caller can show how
// many slots are taken.
type CapacityError struct {
	Reason  string
	Verdict availability.Verdict
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%s: %s (capacity %d, booked %d)", ErrCapacity, e.Reason, e.Verdict.TotalCapacity, e.Verdict.Booked)
}

// Is makes errors.Is(err, ErrCapacity) hold for every CapacityError.
func (e *CapacityError) Is(target error) bool { return target == ErrCapacity }

func validationErr(err error) error { return fmt.Errorf("%w: %w", ErrValidation, err) }

func permissionErr(msg string) error { return fmt.Errorf("%w: %s", ErrPermission, msg) }

// storeErr translates repository sentinels into service error kinds.  Errors
// raised by guards are already service errors and pass through.
func storeErr(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	case errors.Is(err, repository.ErrConflict):
		return fmt.Errorf("%w: %s was modified concurrently", ErrConflict, what)
	}
	return err
}
