// Package users covers registration, login and password management.
package users

import (
	"context"
	"errors"

	"spinrate/internal/auth"
	"spinrate/internal/store"
)

var (
	// ErrInvalidCredentials indicates a login failure.
	ErrInvalidCredentials = errors.New("incorrect email or password")
	// ErrOldPasswordIncorrect indicates the supplied old password is wrong.
	ErrOldPasswordIncorrect = errors.New("old password not correct")
	// ErrPasswordMismatch indicates the confirmation does not match.
	ErrPasswordMismatch = errors.New("new password does not match the confirmation password")
	// ErrSamePassword indicates the new password equals the old one.
	ErrSamePassword = errors.New("new password is the same as the old password")
)

// Store describes the persistence operations required by the user service.
type Store interface {
	CreateUser(ctx context.Context, email, hashedPassword, firstName, lastName string) (store.User, error)
	UserByEmail(ctx context.Context, email string) (store.User, error)
	UserByID(ctx context.Context, id int64) (store.User, error)
	UpdatePassword(ctx context.Context, userID int64, hashedPassword string) error
}

// TokenIssuer mints access tokens for authenticated users.
type TokenIssuer interface {
	Issue(userID int64, email string) (string, error)
}

// Service exposes account workflows.
type Service interface {
	Register(ctx context.Context, email, password, firstName, lastName string) (store.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword, confirmation string) error
}

type service struct {
	store  Store
	tokens TokenIssuer
}

// New wires a Service backed by the provided Store and token issuer.
func New(st Store, tokens TokenIssuer) Service {
	return &service{store: st, tokens: tokens}
}

func (s *service) Register(ctx context.Context, email, password, firstName, lastName string) (store.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return store.User{}, err
	}
	return s.store.CreateUser(ctx, email, hash, firstName, lastName)
}

// Login verifies credentials and returns a signed access token. Unknown
// emails burn a dummy bcrypt comparison so response timing does not reveal
// whether the account exists.
func (s *service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.store.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			auth.CompareDummyPassword(password)
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if !auth.CheckPassword(user.HashedPassword, password) {
		return "", ErrInvalidCredentials
	}

	return s.tokens.Issue(user.ID, user.Email)
}

func (s *service) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword, confirmation string) error {
	user, err := s.store.UserByID(ctx, userID)
	if err != nil {
		return err
	}

	if !auth.CheckPassword(user.HashedPassword, oldPassword) {
		return ErrOldPasswordIncorrect
	}
	if newPassword != confirmation {
		return ErrPasswordMismatch
	}
	if oldPassword == newPassword {
		return ErrSamePassword
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.store.UpdatePassword(ctx, userID, hash)
}
