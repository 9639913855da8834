package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultDiscogsBaseURL = "https://api.discogs.com"

// DiscogsClient implements Client against the Discogs database search API.
type DiscogsClient struct {
	token      string
	userAgent  string
	baseURL    string
	httpClient *http.Client
}

// NewDiscogsClient creates a Discogs API client. The app name and version
// form the User-Agent Discogs requires, and the timeout bounds every lookup.
func NewDiscogsClient(token, appName, appVersion string, timeout time.Duration) *DiscogsClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &DiscogsClient{
		token:     token,
		userAgent: appName + "/" + appVersion,
		baseURL:   defaultDiscogsBaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Discogs API response structures
type discogsSearchResponse struct {
	Results []discogsSearchResult `json:"results"`
}

type discogsSearchResult struct {
	Title      string   `json:"title"` // "Artist - Title"
	Year       string   `json:"year"`
	Genres     []string `json:"genre"`
	Styles     []string `json:"style"`
	Thumb      string   `json:"thumb"`
	CoverImage string   `json:"cover_image"`
}

// LookupAlbum searches Discogs releases and maps the first hit to AlbumInfo.
func (c *DiscogsClient) LookupAlbum(ctx context.Context, artist, title string) (AlbumInfo, error) {
	params := url.Values{}
	params.Set("artist", artist)
	params.Set("release_title", title)
	params.Set("type", "release")
	params.Set("per_page", "1")

	var resp discogsSearchResponse
	if err := c.doRequest(ctx, "database/search", params, &resp); err != nil {
		return AlbumInfo{}, err
	}

	if len(resp.Results) == 0 {
		return AlbumInfo{}, ErrNotFound
	}

	return mapDiscogsResult(resp.Results[0], artist), nil
}

func (c *DiscogsClient) doRequest(ctx context.Context, endpoint string, params url.Values, result any) error {
	apiURL := c.baseURL + "/" + endpoint
	if len(params) > 0 {
		apiURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Discogs token="+c.token)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("discogs api error: %s - %s", resp.Status, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

// mapDiscogsResult converts a search hit into AlbumInfo. Discogs returns the
// release title as "Artist - Title"; when the separator is missing the query
// artist is kept as-is.
func mapDiscogsResult(result discogsSearchResult, queryArtist string) AlbumInfo {
	artist := strings.TrimSpace(queryArtist)
	title := strings.TrimSpace(result.Title)
	if before, after, found := strings.Cut(result.Title, " - "); found {
		artist = strings.TrimSpace(before)
		title = strings.TrimSpace(after)
	}

	releaseDate := "Unknown"
	if result.Year != "" {
		releaseDate = result.Year
	}

	genre := "Unknown"
	if len(result.Genres) > 0 {
		genre = strings.Join(result.Genres, ", ")
	} else if len(result.Styles) > 0 {
		genre = strings.Join(result.Styles, ", ")
	}

	info := AlbumInfo{
		Title:       title,
		Artist:      artist,
		ReleaseDate: &releaseDate,
		Genre:       &genre,
	}

	if result.Thumb != "" {
		thumb := result.Thumb
		info.ImageURL = &thumb
	} else if result.CoverImage != "" {
		cover := result.CoverImage
		info.ImageURL = &cover
	}

	return info
}
