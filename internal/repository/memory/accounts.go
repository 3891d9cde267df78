package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/facility-booking/internal/model"
	"github.com/iliyamo/facility-booking/internal/repository"
	"github.com/iliyamo/facility-booking/internal/utils"
)

// Accounts mirrors repository.AccountRepo.  When Names is set, every created
// account's display name is also recorded there for reservation listings.
type Accounts struct {
	mu    sync.Mutex
	byID  map[uint64]model.Account
	next  uint64
	Names *Store
}

// NewAccounts returns an empty account table.
func NewAccounts(names *Store) *Accounts {
	return &Accounts{byID: make(map[uint64]model.Account), Names: names}
}

func (a *Accounts) Create(_ context.Context, email, name, password string, role model.Role, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, acc := range a.byID {
		if acc.Email == email {
			return 0, repository.ErrEmailExists
		}
	}
	a.next++
	now := time.Now().UTC()
	acc := model.Account{ID: a.next, Email: email, Name: strings.TrimSpace(name), PasswordHash: hash, Role: role, CreatedAt: now, UpdatedAt: now}
	a.byID[acc.ID] = acc
	if a.Names != nil {
		a.Names.SetAccountName(acc.ID, acc.Name)
	}
	return acc.ID, nil
}

func (a *Accounts) GetByEmail(_ context.Context, email string) (model.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, acc := range a.byID {
		if acc.Email == email {
			return acc, nil
		}
	}
	return model.Account{}, repository.ErrNotFound
}

func (a *Accounts) GetByID(_ context.Context, id uint64) (model.Account, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	acc, ok := a.byID[id]
	if !ok {
		return model.Account{}, repository.ErrNotFound
	}
	return acc, nil
}

func (a *Accounts) SetRole(_ context.Context, email string, role model.Role) error {
	email = strings.ToLower(strings.TrimSpace(email))
	a.mu.Lock()
	defer a.mu.Unlock()
	for id, acc := range a.byID {
		if acc.Email == email {
			acc.Role = role
			acc.UpdatedAt = time.Now().UTC()
			a.byID[id] = acc
			return nil
		}
	}
	return repository.ErrNotFound
}

// Tokens mirrors repository.TokenRepo.
type Tokens struct {
	mu   sync.Mutex
	rows map[string]model.RefreshToken
	next uint64
}

// NewTokens returns an empty refresh token table.
func NewTokens() *Tokens { return &Tokens{rows: make(map[string]model.RefreshToken)} }

func (t *Tokens) StoreRefresh(_ context.Context, accountID uint64, tokenHash string, exp time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	t.rows[tokenHash] = model.RefreshToken{ID: t.next, AccountID: accountID, TokenHash: tokenHash, ExpiresAt: exp, CreatedAt: time.Now().UTC()}
	return nil
}

func (t *Tokens) ValidateRefresh(_ context.Context, tokenHash string) (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	row, ok := t.rows[tokenHash]
	if !ok || row.RevokedAt != nil || time.Now().UTC().After(row.ExpiresAt) {
		return 0, repository.ErrNotFound
	}
	return row.AccountID, nil
}

func (t *Tokens) RevokeByHash(_ context.Context, tokenHash string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	row, ok := t.rows[tokenHash]
	if !ok || row.RevokedAt != nil {
		return repository.ErrNotFound
	}
	now := time.Now().UTC()
	row.RevokedAt = &now
	t.rows[tokenHash] = row
	return nil
}

func (t *Tokens) RevokeAllForAccount(_ context.Context, accountID uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := time.Now().UTC()
	for h, row := range t.rows {
		if row.AccountID == accountID && row.RevokedAt == nil {
			row.RevokedAt = &now
			t.rows[h] = row
		}
	}
	return nil
}
