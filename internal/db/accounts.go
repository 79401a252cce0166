package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/resume-intake/internal/types"
)

const accountColumns = `id, name, email, role, password_hash, must_change_password, created_at, updated_at`

func scanAccount(row pgx.Row) (*Account, error) {
	var a Account
	var role string
	if err := row.Scan(&a.ID, &a.Name, &a.Email, &role, &a.PasswordHash, &a.MustChangePassword, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.Role = types.Role(role)
	return &a, nil
}

// CreateAccount inserts an account and returns its ID.
// Returns ErrAccountExists when the email is already registered.
func (db *DB) CreateAccount(ctx context.Context, acc NewAccount) (uuid.UUID, error) {
	role := acc.Role
	if role == "" {
		role = types.RoleCandidate
	}

	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO users (name, email, role, password_hash, must_change_password)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		acc.Name, types.NormalizeEmail(acc.Email), string(role), acc.PasswordHash, acc.MustChangePassword,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return uuid.Nil, ErrAccountExists
		}
		return uuid.Nil, fmt.Errorf("failed to create account: %w", err)
	}
	return id, nil
}

// GetAccount retrieves an account by ID. Returns nil, nil when not found.
func (db *DB) GetAccount(ctx context.Context, id uuid.UUID) (*Account, error) {
	acc, err := scanAccount(db.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return acc, nil
}

// GetAccountByEmail retrieves an account by email, case-insensitively.
// Returns nil, nil when not found.
func (db *DB) GetAccountByEmail(ctx context.Context, email string) (*Account, error) {
	email = types.NormalizeEmail(email)
	if email == "" {
		return nil, nil
	}

	acc, err := scanAccount(db.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM users WHERE LOWER(email) = $1`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}
	return acc, nil
}

// UpdatePassword stores a new password hash and clears the rotation flag.
func (db *DB) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE users SET password_hash = $1, must_change_password = FALSE, updated_at = NOW()
		 WHERE id = $2`,
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account %s not found", id)
	}
	return nil
}
