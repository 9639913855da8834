package store

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrUserExists signals the email address is already registered.
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound signals a missing user record.
	ErrUserNotFound = errors.New("user not found")
	// ErrAlbumNotFound signals no album matched the query.
	ErrAlbumNotFound = errors.New("album not found")
	// ErrRatingExists signals the user already rated the album.
	ErrRatingExists = errors.New("rating already exists for this album by the user")
	// ErrRatingNotFound signals a missing rating record.
	ErrRatingNotFound = errors.New("rating not found")
	// ErrNoRatings signals the user has no ratings at all.
	ErrNoRatings = errors.New("no ratings found for this user")
	// ErrInvalidRating indicates a rating value outside the allowed range.
	ErrInvalidRating = errors.New("rating must be between 0 and 5")
)

// Store provides persistence backed by Postgres.
type Store struct {
	db *sql.DB
}

// New sets up a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
