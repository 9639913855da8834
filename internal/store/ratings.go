package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Rating records one user's score for one album. UNIQUE(user_id, album_id)
// guarantees at most one row per pair even when requests race.
type Rating struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	AlbumID   int64     `json:"album_id"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
}

// RatedAlbum is the composed read model joining a rating with its album.
type RatedAlbum struct {
	Title       string    `json:"title"`
	Artist      string    `json:"artist"`
	ReleaseDate *string   `json:"release_date,omitempty"`
	Genre       *string   `json:"genre,omitempty"`
	ImageURL    *string   `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	Rating      int       `json:"rating"`
}

// ValidateRatingValue checks the 0..5 range shared by the API boundary and
// the ratings table CHECK constraint.
func ValidateRatingValue(value int) error {
	if value < 0 || value > 5 {
		return ErrInvalidRating
	}
	return nil
}

// RatingByAlbumAndUser returns the user's rating for the album, if any.
func (s *Store) RatingByAlbumAndUser(ctx context.Context, albumID, userID int64) (Rating, error) {
	var rating Rating
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, album_id, rating, created_at
		FROM ratings
		WHERE album_id = $1 AND user_id = $2
	`, albumID, userID).Scan(&rating.ID, &rating.UserID, &rating.AlbumID, &rating.Rating, &rating.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Rating{}, ErrRatingNotFound
		}
		return Rating{}, fmt.Errorf("lookup rating: %w", err)
	}
	return rating, nil
}

// InsertRating stores a new rating. The unique constraint is the backstop
// against two concurrent inserts for the same (user, album) pair.
func (s *Store) InsertRating(ctx context.Context, userID, albumID int64, value int) (Rating, error) {
	if err := ValidateRatingValue(value); err != nil {
		return Rating{}, err
	}

	rating := Rating{
		UserID:  userID,
		AlbumID: albumID,
		Rating:  value,
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO ratings (user_id, album_id, rating)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, userID, albumID, value).Scan(&rating.ID, &rating.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return Rating{}, ErrRatingExists
		}
		return Rating{}, fmt.Errorf("insert rating: %w", err)
	}

	return rating, nil
}

// UpdateRatingValue overwrites the rating value only; created_at stays put.
func (s *Store) UpdateRatingValue(ctx context.Context, ratingID int64, value int) error {
	if err := ValidateRatingValue(value); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE ratings
		SET rating = $1
		WHERE id = $2
	`, value, ratingID)
	if err != nil {
		return fmt.Errorf("update rating: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update rating result: %w", err)
	}
	if affected == 0 {
		return ErrRatingNotFound
	}
	return nil
}

// DeleteRating removes a single rating by id.
func (s *Store) DeleteRating(ctx context.Context, ratingID int64) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM ratings
		WHERE id = $1
	`, ratingID)
	if err != nil {
		return fmt.Errorf("delete rating: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete rating result: %w", err)
	}
	if affected == 0 {
		return ErrRatingNotFound
	}
	return nil
}

// DeleteAllRatingsForUser removes every rating owned by the user and
// returns how many rows were deleted.
func (s *Store) DeleteAllRatingsForUser(ctx context.Context, userID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM ratings
		WHERE user_id = $1
	`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete ratings: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete ratings result: %w", err)
	}
	return affected, nil
}

// RatedAlbumsByUser lists the user's ratings joined with album metadata,
// oldest rating first.
func (s *Store) RatedAlbumsByUser(ctx context.Context, userID int64) ([]RatedAlbum, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.title, a.artist, a.release_date, a.genre, a.image_url, r.created_at, r.rating
		FROM ratings r
		JOIN albums a ON a.id = r.album_id
		WHERE r.user_id = $1
		ORDER BY r.created_at ASC, r.id ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("select ratings: %w", err)
	}
	defer rows.Close()

	var rated []RatedAlbum
	for rows.Next() {
		var entry RatedAlbum
		if err := rows.Scan(&entry.Title, &entry.Artist, &entry.ReleaseDate, &entry.Genre, &entry.ImageURL, &entry.CreatedAt, &entry.Rating); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		rated = append(rated, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ratings: %w", err)
	}

	return rated, nil
}
