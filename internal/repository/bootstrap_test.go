package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/facility-booking/internal/model"
	"github.com/iliyamo/facility-booking/internal/repository"
	"github.com/iliyamo/facility-booking/internal/repository/memory"
	"github.com/iliyamo/facility-booking/internal/utils"
)

func TestEnsurePrivileged(t *testing.T) {
	ctx := context.Background()
	accounts := memory.NewAccounts(nil)

	_, err := repository.EnsurePrivileged(ctx, accounts, "boss@example.com", "", bcrypt.MinCost)
	assert.Error(t, err, "cannot create without a password")

	created, err := repository.EnsurePrivileged(ctx, accounts, "boss@example.com", "pw", bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, created)
	acc, err := accounts.GetByEmail(ctx, "boss@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.RolePrivileged, acc.Role)

	created, err = repository.EnsurePrivileged(ctx, accounts, "boss@example.com", "other", bcrypt.MinCost)
	require.NoError(t, err)
	assert.False(t, created)

	_, err = accounts.Create(ctx, "user@example.com", "User", "secret", model.RoleRegular, bcrypt.MinCost)
	require.NoError(t, err)
	created, err = repository.EnsurePrivileged(ctx, accounts, "USER@example.com", "ignored", bcrypt.MinCost)
	require.NoError(t, err)
	assert.False(t, created)
	acc, err = accounts.GetByEmail(ctx, "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.RolePrivileged, acc.Role)
	assert.True(t, utils.VerifyPassword(acc.PasswordHash, "secret"), "promotion keeps the password")
}

func TestMemoryAccountsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	accounts := memory.NewAccounts(nil)
	_, err := accounts.Create(ctx, "a@example.com", "A", "pw", model.RoleRegular, bcrypt.MinCost)
	require.NoError(t, err)
	_, err = accounts.Create(ctx, " A@EXAMPLE.com ", "A2", "pw", model.RoleRegular, bcrypt.MinCost)
	assert.ErrorIs(t, err, repository.ErrEmailExists)
	_, err = accounts.GetByID(ctx, 99)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, accounts.SetRole(ctx, "ghost@example.com", model.RolePrivileged), repository.ErrNotFound)
}
