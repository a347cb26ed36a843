// Package users manages the principal directory backing HTTP Basic
// authentication: usernames, bcrypt password hashes, and the role each
// principal carries into retrieval.
package users

import (
	"context"
	"errors"
	"time"

	"github.com/canopyhq/rolechat/pkg/rbac"
)

var (
	// ErrNotFound is returned when a username does not exist.
	ErrNotFound = errors.New("user not found")

	// ErrExists is returned when creating a username that is already taken.
	ErrExists = errors.New("user already exists")

	// ErrInvalidCredentials is returned on a bad username/password pair.
	// Callers must not distinguish a missing user from a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// User is a principal. Password hashes never leave the store.
type User struct {
	Username  string    `json:"username"`
	Role      rbac.Role `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the principal directory contract.
type Store interface {
	// Authenticate verifies a username/password pair and returns the user.
	// Fails with ErrInvalidCredentials on any mismatch.
	Authenticate(ctx context.Context, username, password string) (*User, error)

	// Create adds a new user. Fails with ErrExists on a duplicate username.
	Create(ctx context.Context, username, password string, role rbac.Role) (*User, error)

	// Update replaces a user's role and, when password is non-empty, their
	// password. Fails with ErrNotFound for unknown usernames.
	Update(ctx context.Context, username, password string, role rbac.Role) (*User, error)

	// Delete removes a user. Fails with ErrNotFound for unknown usernames.
	Delete(ctx context.Context, username string) error

	// Get returns a user by username.
	Get(ctx context.Context, username string) (*User, error)

	// List returns all users sorted by username.
	List(ctx context.Context) ([]User, error)

	// Seed inserts the bootstrap accounts if the store is empty. A store
	// that already holds users is left untouched.
	Seed(ctx context.Context) error

	// Close releases the underlying connection.
	Close() error
}
