package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/facility-booking/internal/model"
	"github.com/iliyamo/facility-booking/internal/utils"
)

// mysqlDuplicateEntry is the server error number for a unique key violation.
const mysqlDuplicateEntry = 1062

// AccountRepo persists accounts in the `accounts` table.
type AccountRepo struct{ DB *sql.DB }

func NewAccountRepo(db *sql.DB) *AccountRepo { return &AccountRepo{DB: db} }

// Create hashes the password, inserts the account and returns its ID.
func (r *AccountRepo) Create(ctx context.Context, email, name, password string, role model.Role, cost int) (uint64, error) {
	email = normalizeEmail(email)
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO accounts (email, name, password_hash, role) VALUES (?,?,?,?)",
		email, strings.TrimSpace(name), hash, string(role))
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches an account by normalized email.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (model.Account, error) {
	return r.scanOne(ctx,
		"SELECT id,email,name,password_hash,role,created_at,updated_at FROM accounts WHERE email=? LIMIT 1",
		normalizeEmail(email))
}

// GetByID fetches an account by id.
func (r *AccountRepo) GetByID(ctx context.Context, id uint64) (model.Account, error) {
	return r.scanOne(ctx,
		"SELECT id,email,name,password_hash,role,created_at,updated_at FROM accounts WHERE id=? LIMIT 1",
		id)
}

// SetRole changes the role of the account with the given email.  It is only
// reachable from the admin CLI and the bootstrap path, never from the API.
func (r *AccountRepo) SetRole(ctx context.Context, email string, role model.Role) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE accounts SET role=? WHERE email=?",
		string(role), normalizeEmail(email))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// RowsAffected is 0 both for a missing row and an unchanged role.
		if _, err := r.GetByEmail(ctx, email); err != nil {
			return err
		}
	}
	return nil
}

func (r *AccountRepo) scanOne(ctx context.Context, q string, arg any) (model.Account, error) {
	var (
		a    model.Account
		role string
	)
	err := r.DB.QueryRowContext(ctx, q, arg).Scan(
		&a.ID, &a.Email, &a.Name, &a.PasswordHash, &role, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Account{}, ErrNotFound
	}
	if err != nil {
		return model.Account{}, err
	}
	a.Role = model.Role(role)
	return a, nil
}

func normalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
