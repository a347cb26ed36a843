package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sqlite3 "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"

	"github.com/canopyhq/rolechat/pkg/rbac"
)

// seedUser is a bootstrap account inserted into an empty store.
type seedUser struct {
	username string
	password string
	role     rbac.Role
}

// seedUsers are the demo accounts, one per role plus an admin.
var seedUsers = []seedUser{
	{"admin", "admin123", rbac.RoleAdmin},
	{"tony", "password123", rbac.RoleEngineering},
	{"bruce", "securepass", rbac.RoleMarketing},
	{"sam", "financepass", rbac.RoleFinance},
	{"peter", "pete123", rbac.RoleEngineering},
	{"sid", "sidpass123", rbac.RoleMarketing},
	{"natasha", "hrpass123", rbac.RoleHR},
	{"elena", "execpass", rbac.RoleCLevel},
}

// dummyHash keeps Authenticate constant-time for unknown usernames.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// SQLiteStore implements Store on SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the user database at dbPath.
// The dbPath can be a file path or ":memory:" for an in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps ":memory:" databases coherent and avoids
	// SQLITE_BUSY under concurrent writes.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

// migrate creates the users table if it doesn't exist.
func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		username TEXT PRIMARY KEY,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Authenticate verifies a username/password pair. All failure paths collapse
// into ErrInvalidCredentials so responses can't be used to probe usernames.
func (s *SQLiteStore) Authenticate(ctx context.Context, username, password string) (*User, error) {
	query := `SELECT username, password_hash, role, created_at FROM users WHERE username = ?`

	row := s.db.QueryRowContext(ctx, query, username)

	var user User
	var hash string
	var roleStr string
	err := row.Scan(&user.Username, &hash, &roleStr, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		// Burn a comparison anyway so the miss costs the same as a mismatch.
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	role, err := rbac.ParseRole(roleStr)
	if err != nil {
		return nil, fmt.Errorf("stored role for %q: %w", username, err)
	}
	user.Role = role

	return &user, nil
}

// Create adds a new user with a freshly hashed password.
func (s *SQLiteStore) Create(ctx context.Context, username, password string, role rbac.Role) (*User, error) {
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if password == "" {
		return nil, fmt.Errorf("password is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	query := `INSERT INTO users (username, password_hash, role) VALUES (?, ?, ?)`

	if _, err := s.db.ExecContext(ctx, query, username, string(hash), string(role)); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %q", ErrExists, username)
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	return s.Get(ctx, username)
}

// Update replaces a user's role and, when password is non-empty, rehashes
// their password.
func (s *SQLiteStore) Update(ctx context.Context, username, password string, role rbac.Role) (*User, error) {
	var result sql.Result
	var err error

	if password != "" {
		var hash []byte
		hash, err = bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hashing password: %w", err)
		}
		result, err = s.db.ExecContext(ctx,
			`UPDATE users SET role = ?, password_hash = ? WHERE username = ?`,
			string(role), string(hash), username,
		)
	} else {
		result, err = s.db.ExecContext(ctx,
			`UPDATE users SET role = ? WHERE username = ?`,
			string(role), username,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check update: %w", err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, username)
	}

	return s.Get(ctx, username)
}

// Delete removes a user by username.
func (s *SQLiteStore) Delete(ctx context.Context, username string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE username = ?`, username)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, username)
	}

	return nil
}

// Get returns a user by username.
func (s *SQLiteStore) Get(ctx context.Context, username string) (*User, error) {
	query := `SELECT username, role, created_at FROM users WHERE username = ?`

	row := s.db.QueryRowContext(ctx, query, username)

	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, username)
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

// List returns all users sorted by username.
func (s *SQLiteStore) List(ctx context.Context) ([]User, error) {
	query := `SELECT username, role, created_at FROM users ORDER BY username`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return users, nil
}

// Seed inserts the bootstrap accounts when the store is empty.
func (s *SQLiteStore) Seed(ctx context.Context) error {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, seed := range seedUsers {
		if _, err := s.Create(ctx, seed.username, seed.password, seed.role); err != nil {
			return fmt.Errorf("seeding %q: %w", seed.username, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var user User
	var roleStr string

	if err := row.Scan(&user.Username, &roleStr, &user.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	role, err := rbac.ParseRole(roleStr)
	if err != nil {
		return nil, fmt.Errorf("stored role for %q: %w", user.Username, err)
	}
	user.Role = role

	return &user, nil
}

// isUniqueViolation reports whether err is a sqlite unique-constraint error.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

var _ Store = (*SQLiteStore)(nil)
