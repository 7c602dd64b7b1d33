// Package service contains the business rules that sit between the HTTP
// handlers and the repositories.
//
// THE THREE LAYERS:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → validates, enforces rules, orchestrates
//	Repository (data layer)  → reads/writes the store
//
// Services accept plain values and return apperror values, never HTTP
// status codes, so the same rules apply to any caller. Passwords never leave
// this package: everything returned to a caller is a model.Profile.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/kanban-boards/internal/apperror"
	"github.com/sakif/kanban-boards/internal/model"
	"github.com/sakif/kanban-boards/internal/repository"
)

// MaxUsernameLength bounds the display name.
const MaxUsernameLength = 60

// CredentialGate checks a user's password and ends their sessions.
// *AccessGate satisfies it.
type CredentialGate interface {
	Verify(ctx context.Context, userID int, password string) (*model.User, error)
	EndSessions(userID int)
}

// UserService manages the user list.
type UserService struct {
	users    repository.UserRepository
	verifier CredentialGate
	logger   *slog.Logger
}

// NewUserService creates a UserService.
func NewUserService(users repository.UserRepository, verifier CredentialGate, logger *slog.Logger) *UserService {
	return &UserService{users: users, verifier: verifier, logger: logger}
}

// ListUsers returns every user without passwords, in stored order.
func (s *UserService) ListUsers(ctx context.Context) []model.Profile {
	users := s.users.GetAll(ctx)
	out := make([]model.Profile, 0, len(users))
	for _, u := range users {
		out = append(out, u.Profile())
	}
	return out
}

// GetUser returns the profile of id, or apperror.ErrNotFound.
func (s *UserService) GetUser(ctx context.Context, id int) (*model.Profile, error) {
	u := s.users.GetByID(ctx, id)
	if u == nil {
		return nil, apperror.NotFound("user", fmt.Sprint(id))
	}
	p := u.Profile()
	return &p, nil
}

// CreateUser validates and stores a new user.
func (s *UserService) CreateUser(ctx context.Context, username, password string) (*model.Profile, error) {
	username, err := validUsername(username)
	if err != nil {
		return nil, err
	}
	if password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}

	u, err := s.users.Insert(ctx, username, password)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user created", slog.Int("user_id", u.ID), slog.String("username", u.Username))
	p := u.Profile()
	return &p, nil
}

// UpdateUser renames a user and optionally replaces the password. The
// caller must present the user's current password. An empty username or
// newPassword keeps the stored value.
func (s *UserService) UpdateUser(ctx context.Context, id int, currentPassword, username, newPassword string) (*model.Profile, error) {
	user, err := s.gate(ctx, id, currentPassword)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(username) != "" {
		if user.Username, err = validUsername(username); err != nil {
			return nil, err
		}
	}
	if newPassword != "" {
		user.Password = newPassword
	}

	if err := s.users.Update(ctx, *user); err != nil {
		return nil, err
	}

	s.logger.Info("user updated", slog.Int("user_id", id))
	p := user.Profile()
	return &p, nil
}

// DeleteUser removes a user after checking their password and ends every
// session issued to them, so a later user given the same id does not inherit
// one. The user's boards stay in the store.
func (s *UserService) DeleteUser(ctx context.Context, id int, password string) error {
	if _, err := s.gate(ctx, id, password); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.verifier.EndSessions(id)
	return nil
}

// gate turns a failed password check on an existing user into ErrForbidden
// and an unknown user into ErrNotFound.
func (s *UserService) gate(ctx context.Context, id int, password string) (*model.User, error) {
	if s.users.GetByID(ctx, id) == nil {
		return nil, apperror.NotFound("user", fmt.Sprint(id))
	}
	user, err := s.verifier.Verify(ctx, id, password)
	if err != nil {
		if errors.Is(err, apperror.ErrUnauthorized) {
			return nil, apperror.Forbidden("password is incorrect")
		}
		return nil, err
	}
	return user, nil
}

func validUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", apperror.ValidationFailed("username", "username is required")
	}
	if len(username) > MaxUsernameLength {
		return "", apperror.ValidationFailed("username",
			fmt.Sprintf("username must be %d characters or less", MaxUsernameLength))
	}
	return username, nil
}
