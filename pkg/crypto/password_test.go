package crypto

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPasswordWithCost("Password123!", bcrypt.MinCost)
	assert.NoError(t, err)
	assert.NotEmpty(t, hash)

	assert.True(t, CheckPassword("Password123!", hash))
	assert.False(t, CheckPassword("WrongPass", hash))
}

func TestHashPassword_DefaultCost(t *testing.T) {
	hash, err := HashPassword("pw")
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, DefaultCost, cost)
}

func TestHashPassword_ErrorBranch(t *testing.T) {
	origBcrypt := bcryptGenerateFromPassword
	t.Cleanup(func() { bcryptGenerateFromPassword = origBcrypt })

	bcryptGenerateFromPassword = func([]byte, int) ([]byte, error) {
		return nil, errors.New("bcrypt failed")
	}
	_, err := HashPassword("Password123!")
	assert.ErrorContains(t, err, "failed to hash password")

	_, err = NewCredentials("admin", "secret", "")
	assert.Error(t, err)
}

func TestCredentials(t *testing.T) {
	hash, err := HashPasswordWithCost("secret", bcrypt.MinCost)
	require.NoError(t, err)

	creds, err := NewCredentials("admin", "ignored", hash)
	require.NoError(t, err)
	assert.Equal(t, "admin", creds.User())
	assert.True(t, creds.Verify("admin", "secret"))
	assert.False(t, creds.Verify("admin", "ignored"), "prepared hash wins over plain password")
	assert.False(t, creds.Verify("root", "secret"))
	assert.False(t, creds.Verify("", ""))
}

func TestNewCredentials_HashesPlainPassword(t *testing.T) {
	origBcrypt := bcryptGenerateFromPassword
	t.Cleanup(func() { bcryptGenerateFromPassword = origBcrypt })
	bcryptGenerateFromPassword = func(pw []byte, _ int) ([]byte, error) {
		return origBcrypt(pw, bcrypt.MinCost)
	}

	creds, err := NewCredentials("admin", "secret", "")
	require.NoError(t, err)
	assert.True(t, creds.Verify("admin", "secret"))
}

func TestNewCredentials_Errors(t *testing.T) {
	_, err := NewCredentials("admin", "", "")
	assert.ErrorIs(t, err, ErrEmptyPassword)

	_, err = NewCredentials("admin", "", "not-a-bcrypt-hash")
	assert.ErrorContains(t, err, "invalid password hash")
}
