package auth

import (
	"strings"
	"testing"
	"time"
)

// newTestTokenService uses a fixed secret so tests are deterministic.
func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	ts, err := NewTokenService("test-secret-at-least-16-chars!!", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

func TestNewTokenService(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		ttl     time.Duration
		wantErr bool
		wantTTL time.Duration
	}{
		{name: "short secret rejected", secret: "short", wantErr: true},
		{name: "zero ttl falls back to default", secret: "this-is-16-chars", wantTTL: DefaultTTL},
		{name: "explicit ttl kept", secret: "this-is-16-chars", ttl: 30 * time.Minute, wantTTL: 30 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, err := NewTokenService(tt.secret, tt.ttl)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewTokenService() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && ts.TTL() != tt.wantTTL {
				t.Errorf("TTL() = %v, want %v", ts.TTL(), tt.wantTTL)
			}
		})
	}
}

func TestGenerate_LooksLikeJWT(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.Generate("7")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if n := strings.Count(token, "."); n != 2 {
		t.Errorf("token has %d dots, want 2", n)
	}
}

func TestValidate_RoundTrip(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.Generate("7")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	got, err := ts.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if got != "7" {
		t.Errorf("Validate() userID = %q, want %q", got, "7")
	}
}

func TestValidate_Rejects(t *testing.T) {
	ts := newTestTokenService(t)
	other, _ := NewTokenService("another-secret-32-chars-long!!!!", time.Hour)

	expired, _ := ts.GenerateWithDuration("7", -time.Second)
	foreign, _ := other.Generate("7")
	valid, _ := ts.Generate("7")
	parts := strings.Split(valid, ".")
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	tests := []struct {
		name  string
		token string
	}{
		{name: "expired", token: expired},
		{name: "signed with another secret", token: foreign},
		{name: "tampered signature", token: tampered},
		{name: "empty", token: ""},
		{name: "garbage", token: "not.a.jwt.token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ts.Validate(tt.token); err == nil {
				t.Errorf("Validate(%s) should fail", tt.name)
			}
		})
	}
}

func TestRevoke(t *testing.T) {
	ts := newTestTokenService(t)

	old, _ := ts.Generate("7")
	bystander, _ := ts.Generate("8")

	ts.Revoke("7")

	if _, err := ts.Validate(old); err == nil {
		t.Error("token issued before Revoke should fail")
	}
	if _, err := ts.Validate(bystander); err != nil {
		t.Errorf("another user's token failed: %v", err)
	}

	// A sign-in in the same second as the revocation still gets a usable token.
	fresh, err := ts.Generate("7")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got, err := ts.Validate(fresh); err != nil || got != "7" {
		t.Errorf("Validate(fresh) = %q, %v", got, err)
	}
}
