// Package tailor assembles a resume tailored to one job posting from the
// user's profile, experiences, and enhanced logs. It is read-only: nothing
// it produces is written back to journal data.
package tailor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/workjournal/internal/db"
	"github.com/jonathan/workjournal/internal/llm"
	"github.com/jonathan/workjournal/internal/prompts"
	"github.com/jonathan/workjournal/internal/schemas"
)

// Job is the target position a resume is tailored for.
type Job struct {
	Title       string
	Company     string
	Description string
}

// ResumeExperience is one entry in the generated resume.
type ResumeExperience struct {
	Title        string   `json:"title"`
	Organization string   `json:"organization"`
	Location     string   `json:"location,omitempty"`
	Dates        string   `json:"dates,omitempty"`
	Bullets      []string `json:"bullets"`
}

// ResumeEducation is one education entry in the generated resume.
type ResumeEducation struct {
	Degree  string  `json:"degree"`
	School  string  `json:"school"`
	Dates   string  `json:"dates,omitempty"`
	Details *string `json:"details,omitempty"`
}

// Resume is the generated document body.
type Resume struct {
	Name       string             `json:"name"`
	Headline   string             `json:"headline"`
	Summary    string             `json:"summary"`
	Contact    map[string]string  `json:"contact,omitempty"`
	Experience []ResumeExperience `json:"experience"`
	Education  []ResumeEducation  `json:"education,omitempty"`
	Skills     []string           `json:"skills"`
}

// Result is a tailored resume with the model's commentary.
type Result struct {
	Resume         Resume   `json:"resume"`
	TailoringNotes []string `json:"tailoring_notes"`
	MatchScore     int      `json:"match_score"`
	Suggestions    []string `json:"suggestions"`
}

// Service generates tailored resumes through an injected model client.
type Service struct {
	client llm.Client
}

// NewService creates a tailoring service.
func NewService(client llm.Client) *Service {
	return &Service{client: client}
}

// Tailor generates a resume for the given job. Title, company, and a
// non-blank description are required before any model call.
func (s *Service) Tailor(ctx context.Context, profile *db.Profile, experiences []db.Experience, logs []db.Log, job Job) (*Result, error) {
	if strings.TrimSpace(job.Title) == "" {
		return nil, &InvalidInputError{Field: "job_title", Message: "job title is required"}
	}
	if strings.TrimSpace(job.Company) == "" {
		return nil, &InvalidInputError{Field: "company", Message: "company is required"}
	}
	if strings.TrimSpace(job.Description) == "" {
		return nil, &InvalidInputError{Field: "job_description", Message: "job description is required"}
	}

	resumeData, err := buildResumeData(profile, experiences, logs)
	if err != nil {
		return nil, fmt.Errorf("failed to build resume data: %w", err)
	}

	template := prompts.MustGet("tailor.json", "generate-resume")
	prompt := prompts.Format(template, map[string]string{
		"ResumeData":     resumeData,
		"Logs":           formatLogs(logs),
		"JobTitle":       strings.TrimSpace(job.Title),
		"Company":        strings.TrimSpace(job.Company),
		"JobDescription": strings.TrimSpace(job.Description),
	})

	// TierAdvanced: whole-document generation benefits from the larger model
	responseText, err := s.client.GenerateJSON(ctx, prompt, llm.TierAdvanced)
	if err != nil {
		return nil, &APICallError{Message: "failed to generate resume", Cause: err}
	}

	return parseResponse(responseText)
}

// resumeData is the profile snapshot serialized into the prompt.
type resumeData struct {
	Name        string           `json:"name"`
	Email       string           `json:"email"`
	Headline    string           `json:"headline,omitempty"`
	Summary     string           `json:"summary,omitempty"`
	Skills      []string         `json:"skills"`
	Experiences []resumeDataItem `json:"experiences"`
}

type resumeDataItem struct {
	Type         string   `json:"type"`
	Title        string   `json:"title"`
	Organization string   `json:"organization"`
	Location     string   `json:"location,omitempty"`
	Dates        string   `json:"dates"`
	Description  string   `json:"description,omitempty"`
	Bullets      []string `json:"original_bullets"`
	RecentLogs   []string `json:"recent_logs"`
}

func buildResumeData(profile *db.Profile, experiences []db.Experience, logs []db.Log) (string, error) {
	data := resumeData{
		Name:        deref(profile.FullName),
		Email:       profile.Email,
		Headline:    deref(profile.Headline),
		Summary:     deref(profile.Summary),
		Skills:      profile.Skills,
		Experiences: make([]resumeDataItem, 0, len(experiences)),
	}
	if data.Skills == nil {
		data.Skills = []string{}
	}
	for _, e := range experiences {
		bullets := e.OriginalBullets
		if bullets == nil {
			bullets = []string{}
		}
		data.Experiences = append(data.Experiences, resumeDataItem{
			Type:         e.Type,
			Title:        e.Title,
			Organization: e.Organization,
			Location:     deref(e.Location),
			Dates:        formatDateRange(&e),
			Description:  deref(e.Description),
			Bullets:      bullets,
			RecentLogs:   experienceBullets(e.ID, logs),
		})
	}

	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// experienceBullets collects the processed bullets of the logs linked to one
// experience, keeping the caller's impact ordering.
func experienceBullets(experienceID uuid.UUID, logs []db.Log) []string {
	bullets := []string{}
	for _, l := range logs {
		if l.ExperienceID == nil || *l.ExperienceID != experienceID || l.ProcessedBullet == nil {
			continue
		}
		bullets = append(bullets, *l.ProcessedBullet)
	}
	return bullets
}

// formatLogs renders the not-yet-on-resume accomplishments. Resume-sourced
// logs are excluded here: they mirror bullets the source resume already
// carries.
func formatLogs(logs []db.Log) string {
	var lines []string
	for _, l := range logs {
		if l.InputType == db.InputResume || l.ProcessedBullet == nil {
			continue
		}
		line := fmt.Sprintf("- %s", *l.ProcessedBullet)
		if l.Category != nil {
			line += fmt.Sprintf(" [%s]", *l.Category)
		}
		if l.ImpactScore != nil {
			line += fmt.Sprintf(" (impact %d/5)", *l.ImpactScore)
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return "No recent logs"
	}
	return strings.Join(lines, "\n")
}

func formatDateRange(e *db.Experience) string {
	start := "?"
	if e.StartDate != nil {
		start = e.StartDate.Format("Jan 2006")
	}
	end := "?"
	if e.IsCurrent {
		end = "Present"
	} else if e.EndDate != nil {
		end = e.EndDate.Format("Jan 2006")
	}
	return start + " - " + end
}

func parseResponse(responseText string) (*Result, error) {
	cleaned := llm.CleanJSONBlock(responseText)
	if !json.Valid([]byte(cleaned)) {
		fenced := llm.ExtractFencedJSON(responseText)
		if fenced == "" {
			return nil, &ParseError{Message: "reply is not valid JSON"}
		}
		cleaned = fenced
	}

	if err := schemas.Validate(schemas.ResumeResult, cleaned); err != nil {
		return nil, &ParseError{Message: "reply failed schema validation", Cause: err}
	}

	var result Result
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return nil, &ParseError{Message: "failed to decode reply", Cause: err}
	}
	return &result, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
