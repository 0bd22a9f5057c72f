package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrBadCredentials is returned for any username or password mismatch.
var ErrBadCredentials = errors.New("invalid username or password")

// Credentials is the single admin account.
type Credentials struct {
	username string
	hash     []byte
}

// NewCredentials uses passwordHash when set, otherwise hashes password.
func NewCredentials(username, password, passwordHash string) (*Credentials, error) {
	if username == "" {
		return nil, errors.New("admin username is required")
	}
	if passwordHash != "" {
		if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
			return nil, fmt.Errorf("admin password hash: %w", err)
		}
		return &Credentials{username: username, hash: []byte(passwordHash)}, nil
	}
	if password == "" {
		return nil, errors.New("admin password or password hash is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	return &Credentials{username: username, hash: hash}, nil
}

// Verify checks a login attempt.
func (c *Credentials) Verify(username, password string) error {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(c.username)) == 1
	if err := bcrypt.CompareHashAndPassword(c.hash, []byte(password)); err != nil || !userOK {
		return ErrBadCredentials
	}
	return nil
}
