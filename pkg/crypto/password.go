package crypto

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultCost is the default bcrypt cost
	DefaultCost = 12
)

var (
	bcryptGenerateFromPassword = bcrypt.GenerateFromPassword

	ErrEmptyPassword = errors.New("password is required")
)

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	return HashPasswordWithCost(password, DefaultCost)
}

// HashPasswordWithCost hashes a password using bcrypt at the given cost
func HashPasswordWithCost(password string, cost int) (string, error) {
	bytes, err := bcryptGenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

// CheckPassword compares a password with a hash
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// Credentials is the single principal allowed to call the API.
// Only the bcrypt hash of its password is kept in memory.
type Credentials struct {
	user string
	hash string
}

// NewCredentials builds the principal from config. A plain password is hashed
// once here; a prepared hash is used as is and wins over password.
func NewCredentials(user, password, hash string) (*Credentials, error) {
	if hash == "" {
		if password == "" {
			return nil, ErrEmptyPassword
		}
		h, err := HashPassword(password)
		if err != nil {
			return nil, err
		}
		hash = h
	} else if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("invalid password hash: %w", err)
	}
	return &Credentials{user: user, hash: hash}, nil
}

// User returns the principal name
func (c *Credentials) User() string {
	return c.user
}

// Verify reports whether user and password match the principal
func (c *Credentials) Verify(user, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(c.user)) == 1
	passOK := CheckPassword(password, c.hash)
	return userOK && passOK
}
