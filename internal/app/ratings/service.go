// Package ratings orchestrates album resolution and rating consistency:
// fuzzy matching against the persisted catalog, lazy catalog fill from the
// external lookup, and one-rating-per-(user, album) semantics.
package ratings

import (
	"context"
	"errors"
	"fmt"

	"spinrate/internal/catalog"
	"spinrate/internal/store"
)

// ErrUpstream indicates the external catalog lookup failed.
var ErrUpstream = errors.New("external catalog lookup failed")

// DefaultSimilarityThreshold gates fuzzy album resolution when no explicit
// threshold is configured.
const DefaultSimilarityThreshold = 0.8

// Store defines the persistence hooks for rating workflows.
type Store interface {
	UserByID(ctx context.Context, id int64) (store.User, error)
	FindAlbumBySimilarity(ctx context.Context, artist, title string, threshold float64) (store.Album, error)
	InsertAlbum(ctx context.Context, album store.Album) (store.Album, error)
	RatingByAlbumAndUser(ctx context.Context, albumID, userID int64) (store.Rating, error)
	InsertRating(ctx context.Context, userID, albumID int64, value int) (store.Rating, error)
	UpdateRatingValue(ctx context.Context, ratingID int64, value int) error
	DeleteRating(ctx context.Context, ratingID int64) error
	DeleteAllRatingsForUser(ctx context.Context, userID int64) (int64, error)
	RatedAlbumsByUser(ctx context.Context, userID int64) ([]store.RatedAlbum, error)
}

// Service coordinates rating creation, mutation and queries.
type Service interface {
	SearchAlbum(ctx context.Context, artist, title string) (store.Album, error)
	Rate(ctx context.Context, userID int64, artist, title string, value int) (store.RatedAlbum, error)
	Change(ctx context.Context, userID int64, artist, title string, value int) (store.RatedAlbum, error)
	Delete(ctx context.Context, userID int64, artist, title string) error
	DeleteAll(ctx context.Context, userID int64) (int64, error)
	List(ctx context.Context, userID int64) ([]store.RatedAlbum, error)
}

type service struct {
	store     Store
	lookup    catalog.Client
	threshold float64
}

// New constructs a ratings Service. The lookup client is injected so the
// external catalog has no process-wide state of its own.
func New(st Store, lookup catalog.Client, threshold float64) Service {
	if threshold <= 0 || threshold >= 1 {
		threshold = DefaultSimilarityThreshold
	}
	return &service{store: st, lookup: lookup, threshold: threshold}
}

// SearchAlbum resolves free-text artist/title to a catalog row. On a fuzzy
// miss the external catalog is consulted and its metadata persisted; the
// store's unique constraint makes the first concurrent writer win and the
// loser reuse the winning row.
func (s *service) SearchAlbum(ctx context.Context, artist, title string) (store.Album, error) {
	album, err := s.store.FindAlbumBySimilarity(ctx, artist, title, s.threshold)
	if err == nil {
		return album, nil
	}
	if !errors.Is(err, store.ErrAlbumNotFound) {
		return store.Album{}, err
	}

	info, err := s.lookup.LookupAlbum(ctx, artist, title)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return store.Album{}, store.ErrAlbumNotFound
		}
		return store.Album{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	return s.store.InsertAlbum(ctx, store.Album{
		Title:       info.Title,
		Artist:      info.Artist,
		ReleaseDate: info.ReleaseDate,
		Genre:       info.Genre,
		ImageURL:    info.ImageURL,
	})
}

// Rate creates a rating for the resolved album. A second rating for the
// same pair is rejected, never overwritten.
func (s *service) Rate(ctx context.Context, userID int64, artist, title string, value int) (store.RatedAlbum, error) {
	if err := store.ValidateRatingValue(value); err != nil {
		return store.RatedAlbum{}, err
	}

	if _, err := s.store.UserByID(ctx, userID); err != nil {
		return store.RatedAlbum{}, err
	}

	album, err := s.SearchAlbum(ctx, artist, title)
	if err != nil {
		return store.RatedAlbum{}, err
	}

	if _, err := s.store.RatingByAlbumAndUser(ctx, album.ID, userID); err == nil {
		return store.RatedAlbum{}, store.ErrRatingExists
	} else if !errors.Is(err, store.ErrRatingNotFound) {
		return store.RatedAlbum{}, err
	}

	rating, err := s.store.InsertRating(ctx, userID, album.ID, value)
	if err != nil {
		return store.RatedAlbum{}, err
	}

	return composeRatedAlbum(album, rating), nil
}

// Change overwrites the rating value for an already-rated album. The album
// is resolved by fuzzy match only; a miss is an error, never a creation.
func (s *service) Change(ctx context.Context, userID int64, artist, title string, value int) (store.RatedAlbum, error) {
	if err := store.ValidateRatingValue(value); err != nil {
		return store.RatedAlbum{}, err
	}

	album, rating, err := s.resolveRated(ctx, userID, artist, title)
	if err != nil {
		return store.RatedAlbum{}, err
	}

	if err := s.store.UpdateRatingValue(ctx, rating.ID, value); err != nil {
		return store.RatedAlbum{}, err
	}

	rating.Rating = value
	return composeRatedAlbum(album, rating), nil
}

// Delete removes the user's rating for the resolved album.
func (s *service) Delete(ctx context.Context, userID int64, artist, title string) error {
	_, rating, err := s.resolveRated(ctx, userID, artist, title)
	if err != nil {
		return err
	}
	return s.store.DeleteRating(ctx, rating.ID)
}

// DeleteAll removes every rating owned by the user. An empty set is
// reported as ErrNoRatings rather than a silent success.
func (s *service) DeleteAll(ctx context.Context, userID int64) (int64, error) {
	if _, err := s.store.UserByID(ctx, userID); err != nil {
		return 0, err
	}

	count, err := s.store.DeleteAllRatingsForUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, store.ErrNoRatings
	}
	return count, nil
}

// List returns the user's ratings joined with album metadata.
func (s *service) List(ctx context.Context, userID int64) ([]store.RatedAlbum, error) {
	if _, err := s.store.UserByID(ctx, userID); err != nil {
		return nil, err
	}

	rated, err := s.store.RatedAlbumsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(rated) == 0 {
		return nil, store.ErrNoRatings
	}
	return rated, nil
}

// resolveRated finds the stored album by fuzzy match and the caller's
// existing rating for it.
func (s *service) resolveRated(ctx context.Context, userID int64, artist, title string) (store.Album, store.Rating, error) {
	if _, err := s.store.UserByID(ctx, userID); err != nil {
		return store.Album{}, store.Rating{}, err
	}

	album, err := s.store.FindAlbumBySimilarity(ctx, artist, title, s.threshold)
	if err != nil {
		return store.Album{}, store.Rating{}, err
	}

	rating, err := s.store.RatingByAlbumAndUser(ctx, album.ID, userID)
	if err != nil {
		return store.Album{}, store.Rating{}, err
	}

	return album, rating, nil
}

func composeRatedAlbum(album store.Album, rating store.Rating) store.RatedAlbum {
	return store.RatedAlbum{
		Title:       album.Title,
		Artist:      album.Artist,
		ReleaseDate: album.ReleaseDate,
		Genre:       album.Genre,
		ImageURL:    album.ImageURL,
		CreatedAt:   rating.CreatedAt,
		Rating:      rating.Rating,
	}
}
