package server

import (
	"context"
	"strings"

	"github.com/jonathan/workjournal/internal/config"
	"github.com/jonathan/workjournal/internal/db"
)

// UserService handles account registration and login against the profiles
// table.
type UserService struct {
	store    Store
	password *config.PasswordConfig
}

// NewUserService creates a user service.
func NewUserService(store Store, password *config.PasswordConfig) *UserService {
	return &UserService{store: store, password: password}
}

// Register creates an account and returns its profile.
func (s *UserService) Register(ctx context.Context, email, password string) (*db.Profile, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	existing, err := s.store.GetProfileByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &ErrEmailAlreadyExists{Email: email}
	}

	hash, err := s.password.HashPassword(password)
	if err != nil {
		return nil, err
	}

	userID, err := s.store.CreateProfile(ctx, email, hash)
	if err != nil {
		return nil, err
	}
	return s.store.GetProfile(ctx, userID)
}

// Login verifies credentials and returns the matching profile. A missing
// account and a wrong password are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (*db.Profile, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	profile, err := s.store.GetProfileByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if profile == nil || !s.password.VerifyPassword(password, profile.PasswordHash) {
		return nil, &ErrInvalidCredentials{}
	}
	return profile, nil
}
