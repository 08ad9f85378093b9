package server

import (
	"encoding/json"
	"net/http"

	"github.com/jonathan/workjournal/internal/db"
)

type updateProfileRequest struct {
	FullName *string  `json:"full_name"`
	Headline *string  `json:"headline"`
	Summary  *string  `json:"summary"`
	Skills   []string `json:"skills"`
}

// handleGetProfile handles GET /v1/profile.
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	profile, err := s.store.GetProfile(r.Context(), userID)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	if profile == nil {
		s.serviceError(w, &ErrUserNotFound{UserID: userID})
		return
	}
	s.jsonResponse(w, http.StatusOK, profile)
}

// handleUpdateProfile handles PATCH /v1/profile. Absent fields are left
// unchanged.
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	upd := &db.ProfileUpdate{
		FullName: req.FullName,
		Headline: req.Headline,
		Summary:  req.Summary,
		Skills:   req.Skills,
	}
	if err := s.store.UpdateProfile(r.Context(), userID, upd); err != nil {
		s.serviceError(w, err)
		return
	}

	profile, err := s.store.GetProfile(r.Context(), userID)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, profile)
}
