package httpapi

import (
	"errors"
	"net/http"

	"spinrate/internal/app/users"
	"spinrate/internal/store"
)

type changePasswordRequest struct {
	OldPassword             string `json:"old_password" validate:"required"`
	NewPassword             string `json:"new_password" validate:"required,min=8"`
	NewPasswordConfirmation string `json:"new_password_confirmation" validate:"required"`
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing bearer token"})
		return
	}

	var req changePasswordRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	err := s.users.ChangePassword(r.Context(), userID, req.OldPassword, req.NewPassword, req.NewPasswordConfirmation)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrUserNotFound):
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "user not found"})
		case errors.Is(err, users.ErrOldPasswordIncorrect),
			errors.Is(err, users.ErrPasswordMismatch),
			errors.Is(err, users.ErrSamePassword):
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
		default:
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "password change failed"})
		}
		return
	}

	writeJSON(w, http.StatusOK, detailResponse{Detail: "password changed successfully"})
}
