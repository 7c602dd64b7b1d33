package auth

import (
	"crypto/subtle"
)

// PasswordChecker compares a typed password with the one stored on the user
// record.
//
// Passwords are stored and compared as typed, so anyone who can read
// users.json can read every password. The comparison is constant-time, so
// response timing does not leak how many leading bytes matched.
//
// A non-empty master password unlocks every user. It is an operator escape
// hatch and is disabled unless MASTER_PASSWORD is set.
type PasswordChecker struct {
	master string
}

// NewPasswordChecker creates a checker. An empty master disables the fallback.
func NewPasswordChecker(master string) *PasswordChecker {
	return &PasswordChecker{master: master}
}

// Matches reports whether typed unlocks a user whose stored password is stored.
// An empty typed password never matches.
func (p *PasswordChecker) Matches(stored, typed string) bool {
	if typed == "" {
		return false
	}
	if equal(stored, typed) {
		return true
	}
	return p.master != "" && equal(p.master, typed)
}

// MasterEnabled reports whether the master password fallback is on.
func (p *PasswordChecker) MasterEnabled() bool { return p.master != "" }

func equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
