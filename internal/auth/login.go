package auth

import (
	"context"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/mailaggregator/mailaggregator/internal/model"
)

// Credentials is the single administrator identity's login material.
// Username is compared verbatim; PasswordHash is a bcrypt hash — the
// operator never stores the plaintext password in configuration.
type Credentials struct {
	Username     string
	PasswordHash string
}

// Login is the password-login collaborator. It returns ErrAuthFailure
// on any mismatch, deliberately not distinguishing a bad username from
// a bad password.
func Login(ctx context.Context, creds Credentials, username, password string) error {
	if subtle.ConstantTimeCompare([]byte(username), []byte(creds.Username)) != 1 {
		return fmt.Errorf("auth: login: %w", model.ErrAuthFailure)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(password)); err != nil {
		return fmt.Errorf("auth: login: %w", model.ErrAuthFailure)
	}
	return nil
}

// CheckBearerToken validates the static API token used by non-interactive
// callers, distinct from the session-token flow used by the web
// console.
func CheckBearerToken(configured, presented string) bool {
	if configured == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(configured), []byte(presented)) == 1
}
