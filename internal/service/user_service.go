package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/taskwire-api/internal/domain"
	"github.com/phrazzld/taskwire-api/internal/store"
)

// UpdateProfileInput carries a partial profile update for the current
// principal. Role flags are not editable through the profile surface.
type UpdateProfileInput struct {
	Username *string
	Password *string
}

// UserService handles registration and profile management.
type UserService struct {
	userStore store.UserStore
	logger    *slog.Logger
}

// NewUserService creates a UserService with the given dependencies.
func NewUserService(userStore store.UserStore, logger *slog.Logger) (*UserService, error) {
	if userStore == nil {
		return nil, fmt.Errorf("userStore cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	return &UserService{
		userStore: userStore,
		logger:    logger.With(slog.String("component", "user_service")),
	}, nil
}

// Register creates a new user account.
// Returns store.ErrUsernameExists when the username is taken and domain
// validation errors for malformed input. Exactly one row exists per
// username; the unique constraint backs the check.
func (s *UserService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := domain.NewUser(username, password)
	if err != nil {
		return nil, err
	}

	if err := s.userStore.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// GetProfile returns the principal's own user record.
func (s *UserService) GetProfile(ctx context.Context, principalID uuid.UUID) (*domain.User, error) {
	return s.userStore.GetByID(ctx, principalID)
}

// UpdateProfile applies a partial update to the principal's own record.
// Returns store.ErrUsernameExists when renaming to a taken username.
func (s *UserService) UpdateProfile(
	ctx context.Context,
	principalID uuid.UUID,
	input UpdateProfileInput,
) (*domain.User, error) {
	user, err := s.userStore.GetByID(ctx, principalID)
	if err != nil {
		return nil, err
	}

	if input.Username != nil {
		user.Username = *input.Username
	}
	if input.Password != nil {
		user.Password = *input.Password
	}

	if err := s.userStore.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}
