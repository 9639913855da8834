package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"spinrate/internal/app/ratings"
	"spinrate/internal/store"
)

type rateAlbumRequest struct {
	Title  string `json:"title" validate:"required"`
	Artist string `json:"artist" validate:"required"`
	Rating *int   `json:"rating" validate:"required,gte=0,lte=5"`
}

type deleteRatingRequest struct {
	Title  string `json:"title" validate:"required"`
	Artist string `json:"artist" validate:"required"`
}

func (s *Server) handleListRatings(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing bearer token"})
		return
	}

	rated, err := s.ratings.List(r.Context(), userID)
	if err != nil {
		s.writeRatingError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rated)
}

func (s *Server) handleRateAlbum(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing bearer token"})
		return
	}

	var req rateAlbumRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	rated, err := s.ratings.Rate(r.Context(), userID, req.Artist, req.Title, *req.Rating)
	if err != nil {
		s.writeRatingError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, rated)
}

func (s *Server) handleChangeRating(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing bearer token"})
		return
	}

	var req rateAlbumRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	rated, err := s.ratings.Change(r.Context(), userID, req.Artist, req.Title, *req.Rating)
	if err != nil {
		s.writeRatingError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rated)
}

func (s *Server) handleDeleteRating(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing bearer token"})
		return
	}

	var req deleteRatingRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	if err := s.ratings.Delete(r.Context(), userID, req.Artist, req.Title); err != nil {
		s.writeRatingError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, detailResponse{Detail: "rating deleted successfully"})
}

func (s *Server) handleDeleteAllRatings(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing bearer token"})
		return
	}

	count, err := s.ratings.DeleteAll(r.Context(), userID)
	if err != nil {
		s.writeRatingError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, detailResponse{Detail: fmt.Sprintf("deleted %d ratings", count)})
}

func (s *Server) writeRatingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrUserNotFound),
		errors.Is(err, store.ErrAlbumNotFound),
		errors.Is(err, store.ErrRatingNotFound),
		errors.Is(err, store.ErrNoRatings):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, store.ErrRatingExists),
		errors.Is(err, store.ErrInvalidRating):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, ratings.ErrUpstream):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "external catalog unavailable"})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
