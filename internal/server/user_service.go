package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/resume-intake/internal/config"
	"github.com/jonathan/resume-intake/internal/db"
	"github.com/jonathan/resume-intake/internal/types"
)

// AccountStore is the subset of the database used for authentication
type AccountStore interface {
	CreateAccount(ctx context.Context, acc db.NewAccount) (uuid.UUID, error)
	GetAccount(ctx context.Context, id uuid.UUID) (*db.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*db.Account, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

// UserService provides business logic for user authentication operations
type UserService struct {
	db             AccountStore
	passwordConfig *config.PasswordConfig
}

// NewUserService creates a new UserService with the given dependencies
func NewUserService(store AccountStore, passwordConfig *config.PasswordConfig) *UserService {
	return &UserService{
		db:             store,
		passwordConfig: passwordConfig,
	}
}

// CreateUser creates an account with a caller-chosen password. The role defaults to candidate.
func (s *UserService) CreateUser(ctx context.Context, req *types.CreateUserRequest) (*types.User, error) {
	passwordHash, err := s.passwordConfig.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	role := req.Role
	if role == "" {
		role = types.RoleCandidate
	}

	userID, err := s.db.CreateAccount(ctx, db.NewAccount{
		Name:         req.Name,
		Email:        req.Email,
		Role:         role,
		PasswordHash: passwordHash,
	})
	if err != nil {
		if errors.Is(err, db.ErrAccountExists) {
			return nil, &ErrEmailAlreadyExists{Email: req.Email}
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.GetUser(ctx, userID)
}

// GetUser returns the account without its password hash
func (s *UserService) GetUser(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	acc, err := s.db.GetAccount(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if acc == nil {
		return nil, &ErrUserNotFound{UserID: userID}
	}
	return acc.ToUser(), nil
}

// Login authenticates a user and returns user data
func (s *UserService) Login(ctx context.Context, req *types.LoginRequest) (*types.User, error) {
	acc, err := s.db.GetAccountByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	// Same error for unknown email and wrong password
	if acc == nil || acc.PasswordHash == "" {
		return nil, &ErrInvalidCredentials{}
	}
	if !s.passwordConfig.VerifyPassword(req.Password, acc.PasswordHash) {
		return nil, &ErrInvalidCredentials{}
	}

	return acc.ToUser(), nil
}

// UpdatePassword rotates a user's password and clears the must-change flag
func (s *UserService) UpdatePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	acc, err := s.db.GetAccount(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if acc == nil {
		return &ErrUserNotFound{UserID: userID}
	}

	if !s.passwordConfig.VerifyPassword(currentPassword, acc.PasswordHash) {
		return &ErrPasswordMismatch{}
	}

	newPasswordHash, err := s.passwordConfig.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}

	if err := s.db.UpdatePassword(ctx, userID, newPasswordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}
