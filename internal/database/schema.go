package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema creates every table the service uses.  Statements are idempotent so
// Migrate can run on each start.  Reservations reference facilities without
// ON DELETE CASCADE; the facility store deletes them explicitly inside the
// same transaction so it can report how many were removed.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		email         VARCHAR(255)    NOT NULL,
		name          VARCHAR(255)    NOT NULL DEFAULT '',
		password_hash VARCHAR(255)    NOT NULL,
		role          ENUM('client','boss') NOT NULL DEFAULT 'client',
		created_at    DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at    DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_accounts_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		account_id BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64)        NOT NULL,
		expires_at DATETIME        NOT NULL,
		revoked_at DATETIME        NULL,
		created_at DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_refresh_tokens_hash (token_hash),
		KEY idx_refresh_tokens_account (account_id),
		CONSTRAINT fk_refresh_tokens_account FOREIGN KEY (account_id) REFERENCES accounts (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS facilities (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		name       VARCHAR(255)    NOT NULL,
		capacity   INT UNSIGNED    NOT NULL,
		created_at DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_facilities_name (name)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS reservations (
		id          BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		facility_id BIGINT UNSIGNED NOT NULL,
		account_id  BIGINT UNSIGNED NOT NULL,
		date        DATE            NOT NULL,
		start_time  TIME            NOT NULL,
		end_time    TIME            NOT NULL,
		status      ENUM('pending','approved','rejected') NOT NULL DEFAULT 'pending',
		created_at  DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_reservations_slot (facility_id, date, status),
		KEY idx_reservations_account (account_id, date, start_time),
		CONSTRAINT fk_reservations_account FOREIGN KEY (account_id) REFERENCES accounts (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate applies the schema.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
