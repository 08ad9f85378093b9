package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/workjournal/internal/db"
)

type experienceRequest struct {
	Type         string  `json:"type"`
	Title        string  `json:"title"`
	Organization string  `json:"organization"`
	Location     *string `json:"location"`
	StartDate    *string `json:"start_date"`
	EndDate      *string `json:"end_date"`
	IsCurrent    bool    `json:"is_current"`
	Description  *string `json:"description"`
}

var experienceTypes = map[string]bool{
	db.ExperienceJob:       true,
	db.ExperienceProject:   true,
	db.ExperienceEducation: true,
	db.ExperienceVolunteer: true,
}

// toExperience validates the request and builds the record.
func (req *experienceRequest) toExperience(userID uuid.UUID) (*db.Experience, error) {
	if req.Title == "" {
		return nil, &ErrValidation{Field: "title", Message: "title is required"}
	}
	if req.Organization == "" {
		return nil, &ErrValidation{Field: "organization", Message: "organization is required"}
	}
	if req.Type == "" {
		req.Type = db.ExperienceJob
	}
	if !experienceTypes[req.Type] {
		return nil, &ErrValidation{Field: "type", Message: fmt.Sprintf("unknown experience type %q", req.Type)}
	}

	exp := &db.Experience{
		UserID:       userID,
		Type:         req.Type,
		Title:        req.Title,
		Organization: req.Organization,
		Location:     req.Location,
		IsCurrent:    req.IsCurrent,
		Description:  req.Description,
		Source:       db.SourceManual,
	}

	var err error
	if exp.StartDate, err = parseDate(req.StartDate); err != nil {
		return nil, &ErrValidation{Field: "start_date", Message: "must be formatted YYYY-MM-DD"}
	}
	if exp.EndDate, err = parseDate(req.EndDate); err != nil {
		return nil, &ErrValidation{Field: "end_date", Message: "must be formatted YYYY-MM-DD"}
	}
	return exp, nil
}

func parseDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// handleListExperiences handles GET /v1/experiences.
func (s *Server) handleListExperiences(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	experiences, err := s.store.ListExperiences(r.Context(), userID)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"experiences": experiences})
}

// handleCreateExperience handles POST /v1/experiences.
func (s *Server) handleCreateExperience(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	var req experienceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	exp, err := req.toExperience(userID)
	if err != nil {
		s.serviceError(w, err)
		return
	}

	id, err := s.store.CreateExperience(r.Context(), exp)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	exp.ID = id
	s.jsonResponse(w, http.StatusCreated, exp)
}

// handleUpdateExperience handles PUT /v1/experiences/{id}. The request
// replaces all user-editable fields.
func (s *Server) handleUpdateExperience(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	experienceID, ok := s.pathID(w, r)
	if !ok {
		return
	}

	var req experienceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	exp, err := req.toExperience(userID)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	exp.ID = experienceID

	if err := s.store.UpdateExperience(r.Context(), userID, exp); err != nil {
		s.serviceError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, exp)
}

// handleDeleteExperience handles DELETE /v1/experiences/{id}. Logs that
// reference the experience are kept and detached by the database.
func (s *Server) handleDeleteExperience(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	experienceID, ok := s.pathID(w, r)
	if !ok {
		return
	}

	if err := s.store.DeleteExperience(r.Context(), userID, experienceID); err != nil {
		s.serviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
