package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/jonathan/workjournal/internal/blob"
	"github.com/jonathan/workjournal/internal/tailor"
)

// maxResumeSize caps resume uploads at 10 MB.
const maxResumeSize = 10 << 20

// handleResumeUpload handles POST /v1/resume/upload. Accepts a single PDF
// as multipart field "file" and stores it at the user's fixed resume key,
// replacing any previous upload.
func (s *Server) handleResumeUpload(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxResumeSize)
	if err := r.ParseMultipartForm(maxResumeSize); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "file exceeds 10MB limit")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	if header.Header.Get("Content-Type") != "application/pdf" {
		s.errorResponse(w, http.StatusBadRequest, "only PDF files are accepted")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "failed to read uploaded file")
		return
	}

	key := blob.ResumeKey(userID.String())
	if err := s.blobs.Put(r.Context(), key, "application/pdf", data); err != nil {
		s.serviceError(w, err)
		return
	}
	if err := s.store.SetResumePath(r.Context(), userID, key); err != nil {
		s.serviceError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"resume_path": key,
		"size_bytes":  len(data),
	})
}

// handleResumeParse handles POST /v1/resume/parse. Parses the stored resume
// into profile fields, experiences, and verbatim bullet logs.
func (s *Server) handleResumeParse(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	summary, err := s.ingester.Ingest(r.Context(), userID)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, summary)
}

type generateResumeRequest struct {
	JobTitle    string `json:"job_title"`
	Company     string `json:"company"`
	Description string `json:"description"`
	JobURL      string `json:"job_url"`
}

// handleResumeGenerate handles POST /v1/resume/generate. The job comes
// either inline or from a posting URL fetched server-side.
func (s *Server) handleResumeGenerate(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	var req generateResumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.JobURL != "" && req.Description == "" {
		description, err := s.fetchJob(r.Context(), req.JobURL)
		if err != nil {
			s.serviceError(w, err)
			return
		}
		req.Description = description
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

	experiences, err := s.store.ListExperiences(r.Context(), userID)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	logs, err := s.store.ListLogsByImpact(r.Context(), userID)
	if err != nil {
		s.serviceError(w, err)
		return
	}

	job := tailor.Job{
		Title:       req.JobTitle,
		Company:     req.Company,
		Description: req.Description,
	}
	result, err := s.generator.Tailor(r.Context(), profile, experiences, logs, job)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}
