// Package auth issues and checks the session token handed out after the
// password gate, and compares passwords against the user list.
//
// SESSION FLOW:
//  1. The client posts {userId, password} to POST /api/session
//  2. service.AccessGate checks the password with a PasswordChecker
//  3. The server issues a JWT whose subject is the user id, sets it as an
//     HttpOnly cookie and returns it in the body
//  4. RequireAuth reads the token (Authorization header or cookie) on every
//     protected request and puts the user id in the request context
//
// The token carries no board data: it only says which user picked the
// board set. Dropping it (DELETE /api/session) is the "switch user" action.
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: {"alg":"HS256","typ":"JWT"}
//	- Payload: {"sub":"7","iss":"kanban-boards","exp":1234567890}
//	- Signature: HMAC-SHA256(header+"."+payload, secretKey)
package auth

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer is written into and required on every token.
const Issuer = "kanban-boards"

// DefaultTTL is the session lifetime when none is configured.
const DefaultTTL = 12 * time.Hour

// TokenService handles JWT creation and validation.
//
// REVOCATION:
// Revoke ends every session of a user issued so far. The cut-off is kept in
// memory, so it does not survive a restart; RequireAuth's user lookup still
// rejects a token whose user is gone.
type TokenService struct {
	secret []byte
	ttl    time.Duration

	mu      sync.Mutex
	revoked map[string]time.Time // subject → earliest accepted iat
}

// NewTokenService creates a TokenService. The secret must be at least 16
// characters; a ttl of zero or less means DefaultTTL.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: session secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, revoked: map[string]time.Time{}}, nil
}

// Revoke invalidates every token already issued for userID. Tokens issued
// afterwards are valid again.
//
// iat has one-second precision, so the cut-off is the start of the next
// second and later tokens are stamped no earlier than that.
func (s *TokenService) Revoke(userID string) {
	cutoff := time.Now().Truncate(time.Second).Add(time.Second)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[userID] = cutoff
}

func (s *TokenService) cutoff(userID string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.revoked[userID]
	return t, ok
}

// TTL is the lifetime of tokens from Generate.
func (s *TokenService) TTL() time.Duration { return s.ttl }

type claims struct {
	jwt.RegisteredClaims
}

// Generate signs a session token for userID with the configured lifetime.
func (s *TokenService) Generate(userID string) (string, error) {
	return s.GenerateWithDuration(userID, s.ttl)
}

// GenerateWithDuration signs a token that expires after d. Tests use a
// negative d to get an already expired token.
func (s *TokenService) GenerateWithDuration(userID string, d time.Duration) (string, error) {
	now := time.Now()
	issued := now
	if cutoff, ok := s.cutoff(userID); ok && issued.Before(cutoff) {
		issued = cutoff
	}

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a token and returns its subject (the user id).
//
// jwt.WithValidMethods pins HS256, so a token claiming "alg":"none" or an
// asymmetric algorithm is rejected before the key is ever used.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", errors.New("auth: token expired")
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", errors.New("auth: invalid token claims")
	}
	if c.Subject == "" {
		return "", errors.New("auth: token has no subject")
	}
	if cutoff, ok := s.cutoff(c.Subject); ok {
		if c.IssuedAt == nil || c.IssuedAt.Time.Before(cutoff) {
			return "", errors.New("auth: session was revoked")
		}
	}
	return c.Subject, nil
}
