package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Album is a catalog record shared by every user's ratings. Rows are created
// once on first lookup and never edited afterwards.
type Album struct {
	ID          int64   `json:"album_id"`
	Title       string  `json:"title"`
	Artist      string  `json:"artist"`
	ReleaseDate *string `json:"release_date,omitempty"`
	Genre       *string `json:"genre,omitempty"`
	ImageURL    *string `json:"image_url,omitempty"`
}

// FindAlbumBySimilarity resolves free-text artist and title against the
// catalog using trigram similarity. A candidate qualifies only when both the
// artist and the title score strictly above the threshold; among qualifying
// rows the highest combined score wins, lowest id on ties.
func (s *Store) FindAlbumBySimilarity(ctx context.Context, artist, title string, threshold float64) (Album, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, artist, release_date, genre, image_url
		FROM albums
		WHERE similarity(artist, $1) > $3
		  AND similarity(title, $2) > $3
		ORDER BY similarity(artist, $1) + similarity(title, $2) DESC, id ASC
		LIMIT 1
	`, artist, title, threshold)

	album, err := scanAlbum(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Album{}, ErrAlbumNotFound
		}
		return Album{}, err
	}
	return album, nil
}

// InsertAlbum adds a catalog record. When a concurrent insert wins the
// UNIQUE(title, artist) race, the existing row is read back and returned
// instead of failing the request.
func (s *Store) InsertAlbum(ctx context.Context, album Album) (Album, error) {
	album.Title = strings.TrimSpace(album.Title)
	album.Artist = strings.TrimSpace(album.Artist)
	if album.Title == "" || album.Artist == "" {
		return Album{}, fmt.Errorf("album title and artist are required")
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO albums (title, artist, release_date, genre, image_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, album.Title, album.Artist, album.ReleaseDate, album.Genre, album.ImageURL).Scan(&album.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return s.albumByTitleArtist(ctx, album.Title, album.Artist)
		}
		return Album{}, fmt.Errorf("insert album: %w", err)
	}

	return album, nil
}

func (s *Store) albumByTitleArtist(ctx context.Context, title, artist string) (Album, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, artist, release_date, genre, image_url
		FROM albums
		WHERE title = $1 AND artist = $2
	`, title, artist)

	album, err := scanAlbum(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Album{}, ErrAlbumNotFound
		}
		return Album{}, err
	}
	return album, nil
}

func scanAlbum(row *sql.Row) (Album, error) {
	var album Album
	err := row.Scan(&album.ID, &album.Title, &album.Artist, &album.ReleaseDate, &album.Genre, &album.ImageURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Album{}, err
		}
		return Album{}, fmt.Errorf("scan album: %w", err)
	}
	return album, nil
}
