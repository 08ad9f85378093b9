// Package ingest bootstraps journal data from an uploaded resume PDF. The
// document is read from the blob store, its text parsed into a structured
// profile and experience history, and each bullet stored as a verbatim log.
// Ingested bullets skip enhancement: they are already resume-ready.
package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"

	"github.com/jonathan/workjournal/internal/blob"
	"github.com/jonathan/workjournal/internal/db"
	"github.com/jonathan/workjournal/internal/llm"
	"github.com/jonathan/workjournal/internal/prompts"
	"github.com/jonathan/workjournal/internal/schemas"
)

// maxParseTokens bounds the parse reply so a pathological document cannot
// run the model open-ended.
const maxParseTokens = 8192

// Store is the subset of journal persistence ingestion writes to.
type Store interface {
	UpdateProfile(ctx context.Context, userID uuid.UUID, upd *db.ProfileUpdate) error
	CreateExperience(ctx context.Context, e *db.Experience) (uuid.UUID, error)
	CreateLog(ctx context.Context, l *db.Log) (uuid.UUID, error)
}

// Summary reports what one ingestion run created.
type Summary struct {
	FullName           string `json:"full_name"`
	ExperiencesCreated int    `json:"experiences_created"`
	LogsCreated        int    `json:"logs_created"`
}

// Service ingests uploaded resumes.
type Service struct {
	store  Store
	blobs  blob.Store
	client llm.Client
}

// NewService creates an ingestion service.
func NewService(store Store, blobs blob.Store, client llm.Client) *Service {
	return &Service{store: store, blobs: blobs, client: client}
}

// Ingest parses the user's uploaded resume and populates their profile,
// experiences, and verbatim logs.
func (s *Service) Ingest(ctx context.Context, userID uuid.UUID) (*Summary, error) {
	data, err := s.blobs.Get(ctx, blob.ResumeKey(userID.String()))
	if err != nil {
		if err == blob.ErrNotFound {
			return nil, &NoResumeError{UserID: userID.String()}
		}
		return nil, fmt.Errorf("failed to load resume: %w", err)
	}

	text, err := ExtractText(data)
	if err != nil {
		return nil, err
	}

	return s.IngestText(ctx, userID, text)
}

// IngestText parses already-extracted resume text and populates the user's
// profile, experiences, and verbatim logs.
func (s *Service) IngestText(ctx context.Context, userID uuid.UUID, text string) (*Summary, error) {
	parsed, err := s.parse(ctx, text)
	if err != nil {
		return nil, err
	}

	if err := s.store.UpdateProfile(ctx, userID, &db.ProfileUpdate{
		FullName: &parsed.Profile.FullName,
		Headline: parsed.Profile.Headline,
		Summary:  parsed.Profile.Summary,
		Skills:   parsed.Profile.Skills,
	}); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	summary := &Summary{FullName: parsed.Profile.FullName}
	for _, pe := range parsed.Experiences {
		experience := &db.Experience{
			UserID:          userID,
			Type:            pe.Type,
			Title:           pe.Title,
			Organization:    pe.Organization,
			Location:        pe.Location,
			StartDate:       parseMonth(pe.StartDate),
			EndDate:         parseMonth(pe.EndDate),
			IsCurrent:       pe.IsCurrent,
			Description:     pe.Description,
			OriginalBullets: pe.Bullets,
			Source:          db.SourceResume,
		}
		if experience.OriginalBullets == nil {
			experience.OriginalBullets = []string{}
		}

		experienceID, err := s.store.CreateExperience(ctx, experience)
		if err != nil {
			return nil, fmt.Errorf("failed to create experience %q: %w", pe.Title, err)
		}
		summary.ExperiencesCreated++

		for _, bullet := range pe.Bullets {
			bullet = strings.TrimSpace(bullet)
			if bullet == "" {
				continue
			}
			category := db.CategoryAchievement
			processed := bullet
			if _, err := s.store.CreateLog(ctx, &db.Log{
				UserID:          userID,
				ExperienceID:    &experienceID,
				RawInput:        bullet,
				InputType:       db.InputResume,
				ProcessedBullet: &processed,
				Category:        &category,
				Tags:            []string{},
			}); err != nil {
				return nil, fmt.Errorf("failed to create log for %q: %w", pe.Title, err)
			}
			summary.LogsCreated++
		}
	}

	return summary, nil
}

// ExtractText pulls plain text from a PDF, pages joined by blank lines.
func ExtractText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &ExtractError{Message: "failed to open document", Cause: err}
	}

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", &ExtractError{Message: fmt.Sprintf("failed to read page %d", i), Cause: err}
		}
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			pages = append(pages, trimmed)
		}
	}

	if len(pages) == 0 {
		return "", &ExtractError{Message: "document contains no extractable text"}
	}
	return strings.Join(pages, "\n\n"), nil
}

// parsedResume mirrors the JSON contract the parse prompt demands.
type parsedResume struct {
	Profile struct {
		FullName string   `json:"full_name"`
		Email    *string  `json:"email"`
		Headline *string  `json:"headline"`
		Summary  *string  `json:"summary"`
		Skills   []string `json:"skills"`
	} `json:"profile"`
	Experiences []struct {
		Type         string   `json:"type"`
		Title        string   `json:"title"`
		Organization string   `json:"organization"`
		Location     *string  `json:"location"`
		StartDate    *string  `json:"start_date"`
		EndDate      *string  `json:"end_date"`
		IsCurrent    bool     `json:"is_current"`
		Description  *string  `json:"description"`
		Bullets      []string `json:"bullets"`
	} `json:"experiences"`
}

func (s *Service) parse(ctx context.Context, resumeText string) (*parsedResume, error) {
	template := prompts.MustGet("parse.json", "parse-resume")
	prompt := prompts.Format(template, map[string]string{
		"ResumeText": resumeText,
	})

	responseText, err := s.client.GenerateJSON(ctx, prompt, llm.TierStandard,
		llm.WithMaxOutputTokens(maxParseTokens))
	if err != nil {
		return nil, &APICallError{Message: "failed to parse resume", Cause: err}
	}

	cleaned := llm.CleanJSONBlock(responseText)
	if !json.Valid([]byte(cleaned)) {
		fenced := llm.ExtractFencedJSON(responseText)
		if fenced == "" {
			return nil, &ParseError{Message: "reply is not valid JSON"}
		}
		cleaned = fenced
	}

	if err := schemas.Validate(schemas.ParsedResume, cleaned); err != nil {
		return nil, &ParseError{Message: "reply failed schema validation", Cause: err}
	}

	var parsed parsedResume
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, &ParseError{Message: "failed to decode reply", Cause: err}
	}
	return &parsed, nil
}

// parseMonth converts a "YYYY-MM" resume date to the first of that month.
func parseMonth(s *string) *time.Time {
	if s == nil {
		return nil
	}
	t, err := time.Parse("2006-01-02", *s+"-01")
	if err != nil {
		return nil
	}
	return &t
}
