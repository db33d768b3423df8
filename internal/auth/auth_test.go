package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mailaggregator/mailaggregator/internal/model"
)

func TestLogin_SucceedsWithCorrectCredentials(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)

	err = Login(context.Background(), Credentials{Username: "admin", PasswordHash: string(hash)}, "admin", "hunter2")
	assert.NoError(t, err)
}

func TestLogin_FailsOnWrongPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)

	err = Login(context.Background(), Credentials{Username: "admin", PasswordHash: string(hash)}, "admin", "wrong")
	assert.ErrorIs(t, err, model.ErrAuthFailure)
}

func TestLogin_FailsOnWrongUsername(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)

	err = Login(context.Background(), Credentials{Username: "admin", PasswordHash: string(hash)}, "someoneelse", "hunter2")
	assert.ErrorIs(t, err, model.ErrAuthFailure)
}

func TestCheckBearerToken(t *testing.T) {
	assert.True(t, CheckBearerToken("secret", "secret"))
	assert.False(t, CheckBearerToken("secret", "wrong"))
	assert.False(t, CheckBearerToken("", "anything"))
}

func TestTokenManager_IssueAndValidateRoundTrip(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour)

	token, err := m.Issue("admin")
	require.NoError(t, err)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)
}

func TestTokenManager_RejectsExpiredToken(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour)
	m.ttl = -time.Hour // NewTokenManager replaces a non-positive ttl with the default

	token, err := m.Issue("admin")
	require.NoError(t, err)

	_, err = m.Validate(token)
	assert.Error(t, err)
}

func TestTokenManager_RejectsWrongSecret(t *testing.T) {
	issuer := NewTokenManager("secret-a", time.Hour)
	verifier := NewTokenManager("secret-b", time.Hour)

	token, err := issuer.Issue("admin")
	require.NoError(t, err)

	_, err = verifier.Validate(token)
	assert.Error(t, err)
}
