package users

import (
	"context"
	"errors"
	"testing"

	"spinrate/internal/auth"
	"spinrate/internal/store"
)

type fakeStore struct {
	byID    map[int64]store.User
	byEmail map[string]store.User

	updatedUserID int64
	updatedHash   string
}

func newFakeStore(t *testing.T) *fakeStore {
	t.Helper()

	hash, err := auth.HashPassword("oldpass123")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}

	user := store.User{
		ID:             42,
		Email:          "nick@example.com",
		HashedPassword: hash,
		FirstName:      "Nick",
		LastName:       "Drake",
	}

	return &fakeStore{
		byID:    map[int64]store.User{42: user},
		byEmail: map[string]store.User{"nick@example.com": user},
	}
}

func (f *fakeStore) CreateUser(ctx context.Context, email, hashedPassword, firstName, lastName string) (store.User, error) {
	if _, exists := f.byEmail[email]; exists {
		return store.User{}, store.ErrUserExists
	}
	user := store.User{ID: 43, Email: email, HashedPassword: hashedPassword, FirstName: firstName, LastName: lastName}
	f.byEmail[email] = user
	f.byID[user.ID] = user
	return user, nil
}

func (f *fakeStore) UserByEmail(ctx context.Context, email string) (store.User, error) {
	user, ok := f.byEmail[email]
	if !ok {
		return store.User{}, store.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeStore) UserByID(ctx context.Context, id int64) (store.User, error) {
	user, ok := f.byID[id]
	if !ok {
		return store.User{}, store.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeStore) UpdatePassword(ctx context.Context, userID int64, hashedPassword string) error {
	if _, ok := f.byID[userID]; !ok {
		return store.ErrUserNotFound
	}
	f.updatedUserID = userID
	f.updatedHash = hashedPassword
	return nil
}

type fakeIssuer struct{}

func (fakeIssuer) Issue(userID int64, email string) (string, error) {
	return "signed-token", nil
}

func TestRegisterHashesPassword(t *testing.T) {
	st := newFakeStore(t)
	svc := New(st, fakeIssuer{})

	user, err := svc.Register(context.Background(), "new@example.com", "secret99", "New", "User")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}

	if user.HashedPassword == "secret99" {
		t.Fatal("password stored in plain text")
	}
	if !auth.CheckPassword(user.HashedPassword, "secret99") {
		t.Fatal("stored hash does not verify")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	st := newFakeStore(t)
	svc := New(st, fakeIssuer{})

	if _, err := svc.Register(context.Background(), "nick@example.com", "secret99", "Nick", "Drake"); !errors.Is(err, store.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	st := newFakeStore(t)
	svc := New(st, fakeIssuer{})
	ctx := context.Background()

	token, err := svc.Login(ctx, "nick@example.com", "oldpass123")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if token != "signed-token" {
		t.Fatalf("unexpected token %q", token)
	}

	if _, err := svc.Login(ctx, "nick@example.com", "wrongpass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, err := svc.Login(ctx, "ghost@example.com", "oldpass123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	tests := []struct {
		name         string
		userID       int64
		old          string
		new          string
		confirmation string
		wantErr      error
	}{
		{
			name:         "success",
			userID:       42,
			old:          "oldpass123",
			new:          "newpass456",
			confirmation: "newpass456",
		},
		{
			name:         "incorrect old password",
			userID:       42,
			old:          "wrongpass",
			new:          "newpass456",
			confirmation: "newpass456",
			wantErr:      ErrOldPasswordIncorrect,
		},
		{
			name:         "confirmation mismatch",
			userID:       42,
			old:          "oldpass123",
			new:          "newpass456",
			confirmation: "different",
			wantErr:      ErrPasswordMismatch,
		},
		{
			name:         "same as old",
			userID:       42,
			old:          "oldpass123",
			new:          "oldpass123",
			confirmation: "oldpass123",
			wantErr:      ErrSamePassword,
		},
		{
			name:         "missing user",
			userID:       999,
			old:          "oldpass123",
			new:          "newpass456",
			confirmation: "newpass456",
			wantErr:      store.ErrUserNotFound,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			st := newFakeStore(t)
			svc := New(st, fakeIssuer{})

			err := svc.ChangePassword(context.Background(), tc.userID, tc.old, tc.new, tc.confirmation)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ChangePassword error: %v", err)
			}

			if st.updatedUserID != 42 {
				t.Fatalf("expected password update for user 42, got %d", st.updatedUserID)
			}
			if !auth.CheckPassword(st.updatedHash, "newpass456") {
				t.Fatal("stored hash does not verify against the new password")
			}
		})
	}
}
