package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/workjournal/internal/db"
)

type createLogRequest struct {
	RawInput  string `json:"raw_input"`
	InputType string `json:"input_type"`
}

// handleListLogs handles GET /v1/logs.
func (s *Server) handleListLogs(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	logs, err := s.store.ListLogs(r.Context(), userID)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"logs": logs})
}

// handleCreateLog handles POST /v1/logs. The raw input runs through the
// enhancement model before the log is stored.
func (s *Server) handleCreateLog(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	var req createLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.RawInput) == "" {
		s.serviceError(w, &ErrValidation{Field: "raw_input", Message: "raw_input is required"})
		return
	}
	inputType := req.InputType
	if inputType == "" {
		inputType = db.InputText
	}
	if inputType != db.InputText && inputType != db.InputVoice {
		s.serviceError(w, &ErrValidation{Field: "input_type", Message: fmt.Sprintf("unknown input type %q", inputType)})
		return
	}

	experiences, err := s.store.ListExperiences(r.Context(), userID)
	if err != nil {
		s.serviceError(w, err)
		return
	}

	result, err := s.enhancer.Enhance(r.Context(), req.RawInput, experiences)
	if err != nil {
		s.serviceError(w, err)
		return
	}

	entry := &db.Log{
		UserID:          userID,
		ExperienceID:    result.ExperienceID,
		RawInput:        req.RawInput,
		InputType:       inputType,
		ProcessedBullet: &result.ProcessedBullet,
		Category:        &result.Category,
		Tags:            result.Tags,
		ImpactScore:     &result.ImpactScore,
		OccurredAt:      result.OccurredAt,
		NeedsReview:     result.NeedsReview,
	}
	id, err := s.store.CreateLog(r.Context(), entry)
	if err != nil {
		s.serviceError(w, err)
		return
	}

	created, err := s.store.GetLog(r.Context(), userID, id)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, created)
}

// handleGetLog handles GET /v1/logs/{id}.
func (s *Server) handleGetLog(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	logID, ok := s.pathID(w, r)
	if !ok {
		return
	}

	entry, err := s.store.GetLog(r.Context(), userID, logID)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	if entry == nil {
		s.errorResponse(w, http.StatusNotFound, fmt.Sprintf("log not found: %s", logID))
		return
	}
	s.jsonResponse(w, http.StatusOK, entry)
}

// updatableLogFields is the PATCH allow-list. Anything else in the body is
// rejected rather than silently dropped.
var updatableLogFields = map[string]bool{
	"raw_input":        true,
	"processed_bullet": true,
	"experience_id":    true,
	"category":         true,
	"tags":             true,
	"occurred_at":      true,
}

// handleUpdateLog handles PATCH /v1/logs/{id}. An explicit null
// experience_id detaches the log; an absent key leaves it alone.
func (s *Server) handleUpdateLog(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	logID, ok := s.pathID(w, r)
	if !ok {
		return
	}

	var fields map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(fields) == 0 {
		s.serviceError(w, &ErrValidation{Field: "body", Message: "no fields to update"})
		return
	}

	upd, err := buildLogUpdate(fields)
	if err != nil {
		s.serviceError(w, err)
		return
	}

	if err := s.store.UpdateLog(r.Context(), userID, logID, upd); err != nil {
		s.serviceError(w, err)
		return
	}

	entry, err := s.store.GetLog(r.Context(), userID, logID)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, entry)
}

func buildLogUpdate(fields map[string]json.RawMessage) (*db.LogUpdate, error) {
	for key := range fields {
		if !updatableLogFields[key] {
			return nil, &ErrValidation{Field: key, Message: "field is not editable"}
		}
	}

	upd := &db.LogUpdate{}
	if raw, ok := fields["raw_input"]; ok {
		if err := json.Unmarshal(raw, &upd.RawInput); err != nil || upd.RawInput == nil {
			return nil, &ErrValidation{Field: "raw_input", Message: "must be a string"}
		}
	}
	if raw, ok := fields["processed_bullet"]; ok {
		if err := json.Unmarshal(raw, &upd.ProcessedBullet); err != nil || upd.ProcessedBullet == nil {
			return nil, &ErrValidation{Field: "processed_bullet", Message: "must be a string"}
		}
	}
	if raw, ok := fields["experience_id"]; ok {
		upd.SetExperienceID = true
		if string(raw) != "null" {
			var id uuid.UUID
			if err := json.Unmarshal(raw, &id); err != nil {
				return nil, &ErrValidation{Field: "experience_id", Message: "must be a UUID or null"}
			}
			upd.ExperienceID = &id
		}
	}
	if raw, ok := fields["category"]; ok {
		if err := json.Unmarshal(raw, &upd.Category); err != nil || upd.Category == nil {
			return nil, &ErrValidation{Field: "category", Message: "must be a string"}
		}
		if !db.ValidCategory(*upd.Category) {
			return nil, &ErrValidation{Field: "category", Message: fmt.Sprintf("unknown category %q", *upd.Category)}
		}
	}
	if raw, ok := fields["tags"]; ok {
		if err := json.Unmarshal(raw, &upd.Tags); err != nil || upd.Tags == nil {
			return nil, &ErrValidation{Field: "tags", Message: "must be an array of strings"}
		}
	}
	if raw, ok := fields["occurred_at"]; ok {
		if err := json.Unmarshal(raw, &upd.OccurredAt); err != nil || upd.OccurredAt == nil {
			return nil, &ErrValidation{Field: "occurred_at", Message: "must be a string"}
		}
		if _, err := time.Parse("2006-01-02", *upd.OccurredAt); err != nil {
			return nil, &ErrValidation{Field: "occurred_at", Message: "must be formatted YYYY-MM-DD"}
		}
	}
	return upd, nil
}

// handleDeleteLog handles DELETE /v1/logs/{id}.
func (s *Server) handleDeleteLog(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	logID, ok := s.pathID(w, r)
	if !ok {
		return
	}

	if err := s.store.DeleteLog(r.Context(), userID, logID); err != nil {
		s.serviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
