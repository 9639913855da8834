package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"spinrate/internal/app/ratings"
	"spinrate/internal/app/users"
	"spinrate/internal/store"
)

type stubUserService struct {
	registerErr error
	loginToken  string
	loginErr    error
	changeErr   error
}

func (s *stubUserService) Register(ctx context.Context, email, password, firstName, lastName string) (store.User, error) {
	if s.registerErr != nil {
		return store.User{}, s.registerErr
	}
	return store.User{ID: 42, Email: email, FirstName: firstName, LastName: lastName}, nil
}

func (s *stubUserService) Login(ctx context.Context, email, password string) (string, error) {
	if s.loginErr != nil {
		return "", s.loginErr
	}
	return s.loginToken, nil
}

func (s *stubUserService) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword, confirmation string) error {
	return s.changeErr
}

type stubRatingService struct {
	rated    store.RatedAlbum
	rateErr  error
	listResp []store.RatedAlbum
	listErr  error

	deleteErr    error
	deleteAllN   int64
	deleteAllErr error

	lastUserID int64
	lastArtist string
	lastTitle  string
	lastValue  int
}

func (s *stubRatingService) Rate(ctx context.Context, userID int64, artist, title string, value int) (store.RatedAlbum, error) {
	s.lastUserID = userID
	s.lastArtist = artist
	s.lastTitle = title
	s.lastValue = value
	if s.rateErr != nil {
		return store.RatedAlbum{}, s.rateErr
	}
	return s.rated, nil
}

func (s *stubRatingService) Change(ctx context.Context, userID int64, artist, title string, value int) (store.RatedAlbum, error) {
	s.lastUserID = userID
	s.lastValue = value
	if s.rateErr != nil {
		return store.RatedAlbum{}, s.rateErr
	}
	return s.rated, nil
}

func (s *stubRatingService) Delete(ctx context.Context, userID int64, artist, title string) error {
	s.lastUserID = userID
	return s.deleteErr
}

func (s *stubRatingService) DeleteAll(ctx context.Context, userID int64) (int64, error) {
	s.lastUserID = userID
	if s.deleteAllErr != nil {
		return 0, s.deleteAllErr
	}
	return s.deleteAllN, nil
}

func (s *stubRatingService) List(ctx context.Context, userID int64) ([]store.RatedAlbum, error) {
	s.lastUserID = userID
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.listResp, nil
}

type stubVerifier struct{}

func (stubVerifier) Verify(token string) (int64, error) {
	if token == "good-token" {
		return 42, nil
	}
	return 0, errors.New("bad token")
}

func newTestServer(usersSvc UserService, ratingsSvc RatingService) http.Handler {
	// Generous limits so the rate limiter stays out of the way.
	return New(usersSvc, ratingsSvc, stubVerifier{}, zerolog.Nop(), RateLimits{Read: 1000, Write: 1000}).Routes()
}

func TestRegister(t *testing.T) {
	handler := newTestServer(&stubUserService{}, &stubRatingService{})

	body := `{"email":"nick@example.com","password":"secret9999","first_name":"Nick","last_name":"Drake"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp userResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Email != "nick@example.com" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	handler := newTestServer(&stubUserService{registerErr: store.ErrUserExists}, &stubRatingService{})

	body := `{"email":"nick@example.com","password":"secret9999","first_name":"Nick","last_name":"Drake"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestRegisterInvalidBody(t *testing.T) {
	handler := newTestServer(&stubUserService{}, &stubRatingService{})

	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: "{"},
		{name: "missing email", body: `{"password":"secret9999","first_name":"Nick","last_name":"Drake"}`},
		{name: "bad email", body: `{"email":"not-an-email","password":"secret9999","first_name":"Nick","last_name":"Drake"}`},
		{name: "short password", body: `{"email":"nick@example.com","password":"short","first_name":"Nick","last_name":"Drake"}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/auth/", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestTokenGrant(t *testing.T) {
	handler := newTestServer(&stubUserService{loginToken: "signed-token"}, &stubRatingService{})

	form := url.Values{"username": {"nick@example.com"}, "password": {"secret9999"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp tokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.AccessToken != "signed-token" || resp.TokenType != "bearer" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestTokenGrantBadCredentials(t *testing.T) {
	handler := newTestServer(&stubUserService{loginErr: users.ErrInvalidCredentials}, &stubRatingService{})

	form := url.Values{"username": {"nick@example.com"}, "password": {"wrong"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if rec.Header().Get("WWW-Authenticate") != "Bearer" {
		t.Fatalf("expected WWW-Authenticate header, got %q", rec.Header().Get("WWW-Authenticate"))
	}
}

func TestRatingsRequireAuth(t *testing.T) {
	handler := newTestServer(&stubUserService{}, &stubRatingService{})

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/album/ratings"},
		{http.MethodPost, "/album/rate-album"},
		{http.MethodPut, "/album/change-rating"},
		{http.MethodDelete, "/album/delete-rating"},
		{http.MethodDelete, "/album/delete-all-ratings"},
		{http.MethodPut, "/user/change-password"},
	}

	for _, tc := range paths {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d", tc.method, tc.path, rec.Code)
		}
	}
}

func TestRateAlbum(t *testing.T) {
	created := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	ratingsSvc := &stubRatingService{rated: store.RatedAlbum{
		Title:     "Abbey Road",
		Artist:    "The Beatles",
		CreatedAt: created,
		Rating:    5,
	}}
	handler := newTestServer(&stubUserService{}, ratingsSvc)

	body := `{"title":"Abbey Road","artist":"The Beatles","rating":5}`
	req := httptest.NewRequest(http.MethodPost, "/album/rate-album", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if ratingsSvc.lastUserID != 42 || ratingsSvc.lastArtist != "The Beatles" || ratingsSvc.lastTitle != "Abbey Road" || ratingsSvc.lastValue != 5 {
		t.Fatalf("unexpected service call: %+v", ratingsSvc)
	}
}

func TestRateAlbumZeroIsValid(t *testing.T) {
	handler := newTestServer(&stubUserService{}, &stubRatingService{})

	body := `{"title":"Abbey Road","artist":"The Beatles","rating":0}`
	req := httptest.NewRequest(http.MethodPost, "/album/rate-album", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRateAlbumValidation(t *testing.T) {
	handler := newTestServer(&stubUserService{}, &stubRatingService{})

	tests := []string{
		`{"title":"Abbey Road","artist":"The Beatles","rating":6}`,
		`{"title":"Abbey Road","artist":"The Beatles","rating":-1}`,
		`{"title":"Abbey Road","artist":"The Beatles"}`,
		`{"artist":"The Beatles","rating":3}`,
	}

	for _, body := range tests {
		req := httptest.NewRequest(http.MethodPost, "/album/rate-album", strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer good-token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestRateAlbumErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "duplicate rating", err: store.ErrRatingExists, wantStatus: http.StatusBadRequest},
		{name: "album not found", err: store.ErrAlbumNotFound, wantStatus: http.StatusNotFound},
		{name: "user not found", err: store.ErrUserNotFound, wantStatus: http.StatusNotFound},
		{name: "upstream failure", err: fmt.Errorf("%w: connection refused", ratings.ErrUpstream), wantStatus: http.StatusBadGateway},
		{name: "infrastructure failure", err: errors.New("store unreachable"), wantStatus: http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler := newTestServer(&stubUserService{}, &stubRatingService{rateErr: tc.err})

			body := `{"title":"Abbey Road","artist":"The Beatles","rating":5}`
			req := httptest.NewRequest(http.MethodPost, "/album/rate-album", strings.NewReader(body))
			req.Header.Set("Authorization", "Bearer good-token")
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, rec.Code)
			}
		})
	}
}

func TestListRatings(t *testing.T) {
	created := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	ratingsSvc := &stubRatingService{listResp: []store.RatedAlbum{
		{Title: "Abbey Road", Artist: "The Beatles", CreatedAt: created, Rating: 5},
	}}
	handler := newTestServer(&stubUserService{}, ratingsSvc)

	req := httptest.NewRequest(http.MethodGet, "/album/ratings", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp []store.RatedAlbum
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 1 || resp[0].Title != "Abbey Road" || resp[0].Rating != 5 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestListRatingsEmpty(t *testing.T) {
	handler := newTestServer(&stubUserService{}, &stubRatingService{listErr: store.ErrNoRatings})

	req := httptest.NewRequest(http.MethodGet, "/album/ratings", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestDeleteRating(t *testing.T) {
	handler := newTestServer(&stubUserService{}, &stubRatingService{})

	body := `{"title":"Abbey Road","artist":"The Beatles"}`
	req := httptest.NewRequest(http.MethodDelete, "/album/delete-rating", bytes.NewReader([]byte(body)))
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestDeleteRatingNotFound(t *testing.T) {
	handler := newTestServer(&stubUserService{}, &stubRatingService{deleteErr: store.ErrRatingNotFound})

	body := `{"title":"Abbey Road","artist":"The Beatles"}`
	req := httptest.NewRequest(http.MethodDelete, "/album/delete-rating", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestDeleteAllRatings(t *testing.T) {
	handler := newTestServer(&stubUserService{}, &stubRatingService{deleteAllN: 3})

	req := httptest.NewRequest(http.MethodDelete, "/album/delete-all-ratings", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "3") {
		t.Fatalf("expected deleted count in response, got %s", rec.Body.String())
	}
}

func TestDeleteAllRatingsEmpty(t *testing.T) {
	handler := newTestServer(&stubUserService{}, &stubRatingService{deleteAllErr: store.ErrNoRatings})

	req := httptest.NewRequest(http.MethodDelete, "/album/delete-all-ratings", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestChangePasswordRuleViolations(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "incorrect old", err: users.ErrOldPasswordIncorrect, wantStatus: http.StatusUnauthorized},
		{name: "mismatch", err: users.ErrPasswordMismatch, wantStatus: http.StatusUnauthorized},
		{name: "same as old", err: users.ErrSamePassword, wantStatus: http.StatusUnauthorized},
		{name: "user gone", err: store.ErrUserNotFound, wantStatus: http.StatusNotFound},
		{name: "success", err: nil, wantStatus: http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler := newTestServer(&stubUserService{changeErr: tc.err}, &stubRatingService{})

			body := `{"old_password":"oldpass123","new_password":"newpass456","new_password_confirmation":"newpass456"}`
			req := httptest.NewRequest(http.MethodPut, "/user/change-password", strings.NewReader(body))
			req.Header.Set("Authorization", "Bearer good-token")
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tc.wantStatus, rec.Code, rec.Body.String())
			}
		})
	}
}
