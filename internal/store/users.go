package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// User is an account record. HashedPassword never leaves the backend.
type User struct {
	ID             int64     `json:"id"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	CreatedAt      time.Time `json:"created_at"`
}

// CreateUser registers a new user with an already-hashed password.
func (s *Store) CreateUser(ctx context.Context, email, hashedPassword, firstName, lastName string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || hashedPassword == "" {
		return User{}, fmt.Errorf("email and password are required")
	}

	user := User{
		Email:     email,
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (email, hashed_password, first_name, last_name)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, user.Email, hashedPassword, user.FirstName, user.LastName).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, ErrUserExists
		}
		return User{}, fmt.Errorf("insert user: %w", err)
	}

	user.HashedPassword = hashedPassword
	return user, nil
}

// UserByEmail returns the user registered under the given email.
func (s *Store) UserByEmail(ctx context.Context, email string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	row := s.db.QueryRowContext(ctx, `
		SELECT id, email, hashed_password, first_name, last_name, created_at
		FROM users
		WHERE email = $1
	`, email)

	return scanUser(row)
}

// UserByID returns the user with the given identifier.
func (s *Store) UserByID(ctx context.Context, id int64) (User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, email, hashed_password, first_name, last_name, created_at
		FROM users
		WHERE id = $1
	`, id)

	return scanUser(row)
}

// UpdatePassword replaces the stored password hash for the user.
func (s *Store) UpdatePassword(ctx context.Context, userID int64, hashedPassword string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET hashed_password = $1
		WHERE id = $2
	`, hashedPassword, userID)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update password result: %w", err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func scanUser(row *sql.Row) (User, error) {
	var user User
	err := row.Scan(&user.ID, &user.Email, &user.HashedPassword, &user.FirstName, &user.LastName, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("scan user: %w", err)
	}
	return user, nil
}
