package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"realty-system/auth"
)

const uniqueViolation = pq.ErrorCode("23505")

func (a *Accessor) Create(ctx context.Context, u User) (*User, error) {
	if err := u.Validate(); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}

	query := `INSERT INTO users (name, surname, email, password_hash, phone, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, status, created_at`
	row := a.db.QueryRowContext(ctx, query, u.Name, u.Surname, u.Email, u.PasswordHash, u.Phone, u.Role)
	if err := row.Scan(&u.ID, &u.Status, &u.CreatedAt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return &u, nil
}

func (a *Accessor) GetByID(ctx context.Context, id int64) (*User, error) {
	query := `SELECT id, name, surname, email, password_hash, phone, role, status, created_at
		FROM users WHERE id = $1`
	return a.scanOne(a.db.QueryRowContext(ctx, query, id))
}

func (a *Accessor) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT id, name, surname, email, password_hash, phone, role, status, created_at
		FROM users WHERE email = $1`
	return a.scanOne(a.db.QueryRowContext(ctx, query, email))
}

func (a *Accessor) scanOne(row *sql.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Name, &u.Surname, &u.Email, &u.PasswordHash, &u.Phone, &u.Role, &u.Status, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan: %w", err)
	}
	return &u, nil
}

// IsActive reports whether the user exists and is not suspended. The auth
// middleware re-checks this on every request so that suspending a user
// invalidates tokens already in the wild.
func (a *Accessor) IsActive(ctx context.Context, id int64) (bool, error) {
	var status Status
	query := `SELECT status FROM users WHERE id = $1`
	if err := a.db.QueryRowContext(ctx, query, id).Scan(&status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("scan: %w", err)
	}
	return status == StatusActive, nil
}

func (a *Accessor) UpdateProfile(ctx context.Context, id int64, name, surname, phone string) (*User, error) {
	query := `UPDATE users SET name = $1, surname = $2, phone = $3 WHERE id = $4`
	if _, err := a.db.ExecContext(ctx, query, name, surname, phone, id); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return a.GetByID(ctx, id)
}

// List returns all users, optionally filtered by role, newest first.
func (a *Accessor) List(ctx context.Context, role auth.Role) ([]User, error) {
	query := `SELECT id, name, surname, email, password_hash, phone, role, status, created_at
		FROM users`
	args := []any{}
	if role != "" {
		query += ` WHERE role = $1`
		args = append(args, role)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Surname, &u.Email, &u.PasswordHash, &u.Phone, &u.Role, &u.Status, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (a *Accessor) UpdateStatus(ctx context.Context, id int64, status Status) error {
	query := `UPDATE users SET status = $1 WHERE id = $2`
	res, err := a.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountByRole feeds the admin dashboard.
func (a *Accessor) CountByRole(ctx context.Context) (map[auth.Role]int, error) {
	query := `SELECT role, COUNT(*) FROM users GROUP BY role`
	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	defer rows.Close()

	counts := make(map[auth.Role]int)
	for rows.Next() {
		var role auth.Role
		var n int
		if err := rows.Scan(&role, &n); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		counts[role] = n
	}
	return counts, rows.Err()
}
