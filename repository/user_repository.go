package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"virtualDeviceManagement/models"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user. The caller is responsible for assigning ID,
// CreatedAt and a valid Role; uniqueness of username and email is checked
// at the service layer and backstopped by DB constraints here.
func (r *UserRepository) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if u == nil {
		return nil, errors.New("user is nil")
	}
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `INSERT INTO users (id, username, email, role, created_at, last_login) VALUES (?,?,?,?,?,?)`,
		u.ID, u.Username, u.Email, u.Role, formatTime(u.CreatedAt), formatTimePtr(u.LastLogin))
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanUser(r.db.QueryRowContext(ctx, `SELECT id, username, email, role, created_at, last_login FROM users WHERE id = ?`, id))
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanUser(r.db.QueryRowContext(ctx, `SELECT id, username, email, role, created_at, last_login FROM users WHERE username = ?`, username))
}

// List returns users in insertion order. A limit <= 0 returns the full
// snapshot.
func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	if limit <= 0 {
		limit = -1 // sqlite: negative LIMIT means unlimited
	}
	if offset < 0 {
		offset = 0
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT id, username, email, role, created_at, last_login FROM users ORDER BY seq LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.User
	for rows.Next() {
		var u models.User
		var createdAt string
		var lastLogin sql.NullString
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.Role, &createdAt, &lastLogin); err != nil {
			return nil, err
		}
		u.CreatedAt = parseTime(createdAt)
		u.LastLogin = parseTimePtr(lastLogin)
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UsernameTaken reports whether a user with the given username exists.
// Usernames compare case-sensitively.
func (r *UserRepository) UsernameTaken(ctx context.Context, username string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)`, username).Scan(&exists)
	return exists, err
}

// EmailTaken reports whether a user with the given email exists.
func (r *UserRepository) EmailTaken(ctx context.Context, email string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`, email).Scan(&exists)
	return exists, err
}

// UpdateLastLogin stamps the last successful authentication time.
// No-op if the user is absent.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_login = ? WHERE id = ?`, formatTime(at), id)
	return err
}

// CountByRole counts users holding the given role.
func (r *UserRepository) CountByRole(ctx context.Context, role string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE role = ?`, role).Scan(&n)
	return n, err
}

// Delete removes the user unconditionally. Absence is a no-op.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	return err
}

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	var createdAt string
	var lastLogin sql.NullString
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Role, &createdAt, &lastLogin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.CreatedAt = parseTime(createdAt)
	u.LastLogin = parseTimePtr(lastLogin)
	return &u, nil
}
