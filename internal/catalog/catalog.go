// Package catalog provides album metadata lookup against an external
// catalog service. The store treats it as a cache-fill source: it is only
// consulted when fuzzy resolution against persisted albums misses.
package catalog

import (
	"context"
	"errors"
)

// ErrNotFound signals the external catalog has no release for the query.
var ErrNotFound = errors.New("album not found in external catalog")

// AlbumInfo is canonical release metadata returned by an external catalog.
type AlbumInfo struct {
	Title       string  `json:"title"`
	Artist      string  `json:"artist"`
	ReleaseDate *string `json:"release_date,omitempty"`
	Genre       *string `json:"genre,omitempty"`
	ImageURL    *string `json:"image_url,omitempty"`
}

// Client defines the lookup interface consumed by the rating service.
type Client interface {
	// LookupAlbum returns best-guess metadata for the first release
	// matching the artist and title. ErrNotFound means the catalog has no
	// match; any other error is an upstream failure.
	LookupAlbum(ctx context.Context, artist, title string) (AlbumInfo, error)
}
