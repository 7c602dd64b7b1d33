package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/sakif/kanban-boards/internal/apperror"
	"github.com/sakif/kanban-boards/internal/auth"
	"github.com/sakif/kanban-boards/internal/model"
	"github.com/sakif/kanban-boards/internal/repository"
)

// Login results reported to the LoginRecorder.
const (
	LoginSuccess   = "success"
	LoginRejected  = "rejected"
	LoginThrottled = "throttled"
)

// LoginRecorder receives login outcomes. metrics.Collector satisfies it.
type LoginRecorder interface {
	RecordLogin(result string)
}

type nopLoginRecorder struct{}

func (nopLoginRecorder) RecordLogin(string) {}

// invalidCredentials is shared by "no such user" and "wrong password".
const invalidCredentials = "invalid user or password"

// AccessGate is the password check in front of a user's boards.
//
//	SessionHandler (HTTP) → AccessGate → UserRepository
//	                                   ↘ PasswordChecker, TokenService
//
// A user that does not exist is treated exactly like a wrong password.
type AccessGate struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordChecker
	limiter   *LoginLimiter
	recorder  LoginRecorder
	logger    *slog.Logger
}

// NewAccessGate wires the gate. limiter and recorder may be nil.
func NewAccessGate(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordChecker,
	limiter *LoginLimiter,
	recorder LoginRecorder,
	logger *slog.Logger,
) *AccessGate {
	if recorder == nil {
		recorder = nopLoginRecorder{}
	}
	return &AccessGate{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		limiter:   limiter,
		recorder:  recorder,
		logger:    logger,
	}
}

// Session is the result of a successful login.
type Session struct {
	Token     string        `json:"token"`
	User      model.Profile `json:"user"`
	ExpiresAt time.Time     `json:"expiresAt"`
}

// Verify checks password for userID and returns the user. It fails with
// apperror.ErrUnauthorized for an unknown user or a wrong password, and with
// apperror.ErrRateLimited when the user has run out of attempts.
func (g *AccessGate) Verify(ctx context.Context, userID int, password string) (*model.User, error) {
	user := g.users.GetByID(ctx, userID)
	if user == nil {
		g.recorder.RecordLogin(LoginRejected)
		return nil, apperror.Unauthorized(invalidCredentials)
	}
	if !g.limiter.Allow(userID) {
		g.recorder.RecordLogin(LoginThrottled)
		g.logger.Warn("login throttled", slog.Int("user_id", userID))
		return nil, apperror.RateLimited("too many attempts, try again in a minute")
	}
	if !g.passwords.Matches(user.Password, password) {
		g.recorder.RecordLogin(LoginRejected)
		g.logger.Info("login rejected", slog.Int("user_id", userID))
		return nil, apperror.Unauthorized(invalidCredentials)
	}
	return user, nil
}

// Login verifies the password and issues a session token whose subject is
// the user id.
func (g *AccessGate) Login(ctx context.Context, userID int, password string) (*Session, error) {
	user, err := g.Verify(ctx, userID, password)
	if err != nil {
		return nil, err
	}

	token, err := g.tokens.Generate(strconv.Itoa(user.ID))
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %d: %w", user.ID, err)
	}
	g.recorder.RecordLogin(LoginSuccess)

	g.logger.Info("user signed in",
		slog.Int("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return &Session{
		Token:     token,
		User:      user.Profile(),
		ExpiresAt: time.Now().Add(g.tokens.TTL()),
	}, nil
}

// EndSessions revokes every session token issued to userID so far.
func (g *AccessGate) EndSessions(userID int) {
	g.tokens.Revoke(strconv.Itoa(userID))
	g.logger.Info("sessions ended", slog.Int("user_id", userID))
}
