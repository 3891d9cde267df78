package repository

import (
	"context"
	"errors"

	"github.com/iliyamo/facility-booking/internal/model"
)

// AccountWriter is implemented by AccountRepo and the in-memory account
// table.
type AccountWriter interface {
	Create(ctx context.Context, email, name, password string, role model.Role, cost int) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.Account, error)
	SetRole(ctx context.Context, email string, role model.Role) error
}

// EnsurePrivileged makes sure an account with email exists and is
// privileged.  A missing account is created with password; an existing one
// keeps its password and is only promoted.  created reports which happened.
func EnsurePrivileged(ctx context.Context, accounts AccountWriter, email, password string, cost int) (created bool, err error) {
	acc, err := accounts.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, ErrNotFound):
		if password == "" {
			return false, errors.New("password required to create a privileged account")
		}
		_, err := accounts.Create(ctx, email, "Administrator", password, model.RolePrivileged, cost)
		return err == nil, err
	case err != nil:
		return false, err
	case acc.Role.IsPrivileged():
		return false, nil
	}
	return false, accounts.SetRole(ctx, email, model.RolePrivileged)
}
