package domain

import (
	"errors"
	"time"
)

// RoleUser is the single authority attached to every authenticated identity.
// The system has no role hierarchy.
const RoleUser = "user"

var ErrInvalidCredentials = errors.New("invalid username or password")
var ErrUserNotFound = errors.New("user not found")
var ErrUsernameTaken = errors.New("username already exists")
var ErrEmailTaken = errors.New("email already exists")
var ErrPasswordMismatch = errors.New("passwords do not match")

// User models a registered account. The password is only ever stored as a
// bcrypt hash; the hash never leaves the server.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
