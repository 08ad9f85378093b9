// Package enhance turns a raw accomplishment note into a structured log
// entry: a resume-ready bullet, a category, tags, an impact score, and a
// best-guess link to one of the user's experiences.
package enhance

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/workjournal/internal/db"
	"github.com/jonathan/workjournal/internal/llm"
	"github.com/jonathan/workjournal/internal/prompts"
	"github.com/jonathan/workjournal/internal/schemas"
)

// ReviewThreshold is the match confidence below which a log is flagged for
// manual review of its experience link.
const ReviewThreshold = 0.70

// Result is the structured form of one enhanced log entry.
type Result struct {
	ProcessedBullet string
	ExperienceID    *uuid.UUID
	MatchConfidence float64
	Category        string
	Tags            []string
	ImpactScore     int
	OccurredAt      *time.Time
	NeedsReview     bool
}

// Service enhances raw log input through an injected model client.
type Service struct {
	client llm.Client
}

// NewService creates an enhancement service.
func NewService(client llm.Client) *Service {
	return &Service{client: client}
}

// Enhance processes one raw entry against the user's experiences. Empty or
// whitespace-only input fails before any model call.
func (s *Service) Enhance(ctx context.Context, rawInput string, experiences []db.Experience) (*Result, error) {
	input := strings.TrimSpace(rawInput)
	if input == "" {
		return nil, &InvalidInputError{Message: "raw input is empty"}
	}

	prompt := buildPrompt(input, experiences)

	// TierStandard balances quality and latency for per-entry processing
	responseText, err := s.client.GenerateJSON(ctx, prompt, llm.TierStandard)
	if err != nil {
		return nil, &APICallError{Message: "failed to enhance log entry", Cause: err}
	}

	return parseResponse(responseText, experiences)
}

// buildPrompt renders the enhancement template with the user's experiences
// listed one per line so the model can pick a match by ID.
func buildPrompt(input string, experiences []db.Experience) string {
	template := prompts.MustGet("enhance.json", "enhance-log")
	return prompts.Format(template, map[string]string{
		"Experiences": formatExperiences(experiences),
		"Input":       input,
	})
}

func formatExperiences(experiences []db.Experience) string {
	if len(experiences) == 0 {
		return "No experiences found"
	}
	lines := make([]string, 0, len(experiences))
	for _, e := range experiences {
		lines = append(lines, fmt.Sprintf("- ID: %s | %s @ %s (%s - %s)%s",
			e.ID, e.Title, e.Organization,
			formatYear(e.StartDate), endLabel(&e),
			currentMarker(e.IsCurrent)))
	}
	return strings.Join(lines, "\n")
}

func formatYear(t *time.Time) string {
	if t == nil {
		return "?"
	}
	return fmt.Sprintf("%d", t.Year())
}

func endLabel(e *db.Experience) string {
	if e.IsCurrent {
		return "Present"
	}
	return formatYear(e.EndDate)
}

func currentMarker(isCurrent bool) string {
	if isCurrent {
		return " [current]"
	}
	return ""
}

// reply mirrors the JSON contract the prompt demands.
type reply struct {
	ProcessedBullet string   `json:"processed_bullet"`
	ExperienceID    *string  `json:"experience_id"`
	MatchConfidence float64  `json:"match_confidence"`
	Category        string   `json:"category"`
	Tags            []string `json:"tags"`
	ImpactScore     int      `json:"impact_score"`
	OccurredAt      *string  `json:"occurred_at"`
}

func parseResponse(responseText string, experiences []db.Experience) (*Result, error) {
	cleaned := llm.CleanJSONBlock(responseText)

	var r reply
	if err := json.Unmarshal([]byte(cleaned), &r); err != nil {
		// Some replies wrap the JSON in prose; retry on the first fenced block.
		fenced := llm.ExtractFencedJSON(responseText)
		if fenced == "" {
			return nil, &ParseError{Message: "reply is not valid JSON", Cause: err}
		}
		cleaned = fenced
		if err := json.Unmarshal([]byte(cleaned), &r); err != nil {
			return nil, &ParseError{Message: "fenced reply is not valid JSON", Cause: err}
		}
	}

	if err := schemas.Validate(schemas.EnhancedLog, cleaned); err != nil {
		return nil, &ParseError{Message: "reply failed schema validation", Cause: err}
	}

	result := &Result{
		ProcessedBullet: strings.TrimSpace(r.ProcessedBullet),
		MatchConfidence: r.MatchConfidence,
		Category:        r.Category,
		Tags:            r.Tags,
		ImpactScore:     r.ImpactScore,
		NeedsReview:     r.MatchConfidence < ReviewThreshold,
	}
	if result.Tags == nil {
		result.Tags = []string{}
	}

	// Only accept an experience link that points at one of this user's
	// experiences. A hallucinated ID degrades to an unlinked entry.
	if r.ExperienceID != nil {
		if id, err := uuid.Parse(*r.ExperienceID); err == nil && ownsExperience(experiences, id) {
			result.ExperienceID = &id
		} else {
			result.NeedsReview = true
		}
	}

	if r.OccurredAt != nil {
		if t, err := time.Parse("2006-01-02", *r.OccurredAt); err == nil {
			result.OccurredAt = &t
		}
	}

	return result, nil
}

func ownsExperience(experiences []db.Experience, id uuid.UUID) bool {
	for _, e := range experiences {
		if e.ID == id {
			return true
		}
	}
	return false
}
