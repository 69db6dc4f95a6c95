// Package auth is responsible for handling authentication and authorization:
// user registration, login, token generation (JWT), and token validation.
// It also owns the User model, which every other entity in the system hangs
// off via an owner foreign key.
package auth

import (
	"strings"
	"time"

	"github.com/user/recipebox-go/apperror"
)

// User represents a user in the system. The email address is the login
// identity. HashedPassword carries the bcrypt hash and is never serialized.
type User struct {
	ID             int       `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	HashedPassword string    `json:"-"` // Do not expose hashed password
	IsActive       bool      `json:"is_active"`
	IsStaff        bool      `json:"is_staff"`
	IsSuperuser    bool      `json:"is_superuser"`
	CreatedAt      time.Time `json:"created_at"`
}

// NormalizeEmail canonicalizes an email address by lowercasing the domain part.
// The local part is left untouched: per RFC 5321 the mailbox name is
// case-sensitive in principle, and only the domain is guaranteed
// case-insensitive, so "Test2@Example.COM" normalizes to "Test2@example.com".
func NormalizeEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at+1] + strings.ToLower(email[at+1:])
}

// NewUser builds a User record for the given identity, applying email
// normalization. An empty email is a validation error and no record is
// produced. New users start active with no staff or superuser privileges.
func NewUser(email, name string) (*User, error) {
	if email == "" {
		return nil, apperror.NewValidationError("user must have an email address", nil)
	}
	return &User{
		Email:    NormalizeEmail(email),
		Name:     name,
		IsActive: true,
	}, nil
}

// NewSuperuser builds a User record with staff and superuser privileges
// forced on. It shares NewUser's validation and normalization.
func NewSuperuser(email, name string) (*User, error) {
	user, err := NewUser(email, name)
	if err != nil {
		return nil, err
	}
	user.IsStaff = true
	user.IsSuperuser = true
	return user, nil
}
