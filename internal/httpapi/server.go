package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"spinrate/internal/store"
)

// UserService captures the account operations needed by the HTTP handlers.
type UserService interface {
	Register(ctx context.Context, email, password, firstName, lastName string) (store.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword, confirmation string) error
}

// RatingService exposes album-rating workflows.
type RatingService interface {
	Rate(ctx context.Context, userID int64, artist, title string, value int) (store.RatedAlbum, error)
	Change(ctx context.Context, userID int64, artist, title string, value int) (store.RatedAlbum, error)
	Delete(ctx context.Context, userID int64, artist, title string) error
	DeleteAll(ctx context.Context, userID int64) (int64, error)
	List(ctx context.Context, userID int64) ([]store.RatedAlbum, error)
}

// TokenVerifier checks bearer tokens and yields the authenticated user ID.
type TokenVerifier interface {
	Verify(token string) (int64, error)
}

// RateLimits holds per-client request budgets, in requests per minute.
type RateLimits struct {
	Read  int
	Write int
}

// Server wires HTTP handlers to the underlying services.
type Server struct {
	users    UserService
	ratings  RatingService
	tokens   TokenVerifier
	validate *validator.Validate
	logger   zerolog.Logger
	limits   RateLimits
}

// New configures a Server with the given services.
func New(users UserService, ratings RatingService, tokens TokenVerifier, logger zerolog.Logger, limits RateLimits) *Server {
	if limits.Read <= 0 {
		limits.Read = 10
	}
	if limits.Write <= 0 {
		limits.Write = 5
	}
	return &Server{
		users:    users,
		ratings:  ratings,
		tokens:   tokens,
		validate: validator.New(),
		logger:   logger,
		limits:   limits,
	}
}

// Routes exposes the HTTP handlers for auth, account and rating management.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID, s.requestLogger)

	readLimit := httprate.LimitByIP(s.limits.Read, time.Minute)
	writeLimit := httprate.LimitByIP(s.limits.Write, time.Minute)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/auth", func(r chi.Router) {
		r.Use(writeLimit)
		r.Post("/", s.handleRegister)
		r.Post("/token", s.handleToken)
	})

	r.Route("/user", func(r chi.Router) {
		r.Use(s.requireAuth)
		r.With(writeLimit).Put("/change-password", s.handleChangePassword)
	})

	r.Route("/album", func(r chi.Router) {
		r.Use(s.requireAuth)
		r.With(readLimit).Get("/ratings", s.handleListRatings)
		r.With(writeLimit).Post("/rate-album", s.handleRateAlbum)
		r.With(writeLimit).Put("/change-rating", s.handleChangeRating)
		r.With(writeLimit).Delete("/delete-rating", s.handleDeleteRating)
		r.With(writeLimit).Delete("/delete-all-ratings", s.handleDeleteAllRatings)
	})

	return r
}

type errorResponse struct {
	Error string `json:"error"`
}

type detailResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

// decodeAndValidate parses the JSON body into dst and runs struct validation.
func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return false
	}
	return true
}
