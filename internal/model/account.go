package model

import "time"

// Role is the authorization level of an account.  The wire values are the
// ones stored in the `accounts.role` column and carried in the JWT "role"
// claim.
type Role string

const (
	RoleRegular    Role = "client" // may request and cancel own bookings
	RolePrivileged Role = "boss"   // may decide bookings and manage facilities
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool { return r == RoleRegular || r == RolePrivileged }

// IsPrivileged reports whether r may approve, reject and manage the catalog.
func (r Role) IsPrivileged() bool { return r == RolePrivileged }

// Account represents a row in the `accounts` table.  Signup always creates a
// regular account; the role never changes through the API.
//
// Fields:
//  ID           – primary key identifier.
//  Email        – unique, lower-cased login address.
//  Name         – display name shown on booking lists.
//  PasswordHash – bcrypt hash of the password.
//  Role         – client or boss.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type Account struct {
	ID           uint64    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Actor is the minimal identity the lifecycle controller needs: who is
// calling and with which role.  Handlers build it from JWT claims.
type Actor struct {
	ID   uint64
	Role Role
}

// Privileged is shorthand for a.Role.IsPrivileged().
func (a Actor) Privileged() bool { return a.Role.IsPrivileged() }

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// SHA‑256 hash of the raw token is stored.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	AccountID uint64     // refresh_tokens.account_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
