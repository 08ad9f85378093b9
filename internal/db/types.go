package db

import (
	"time"

	"github.com/google/uuid"
)

// Experience kinds.
const (
	ExperienceJob       = "job"
	ExperienceProject   = "project"
	ExperienceEducation = "education"
	ExperienceVolunteer = "volunteer"
)

// Experience provenance.
const (
	SourceResume = "resume"
	SourceManual = "manual"
	SourceGitHub = "github"
)

// Log input modalities.
const (
	InputText   = "text"
	InputVoice  = "voice"
	InputGitHub = "github"
	InputResume = "resume"
)

// Log categories, the fixed set the enhancement model may choose from.
const (
	CategoryLaunch        = "launch"
	CategoryAchievement   = "achievement"
	CategoryCollaboration = "collaboration"
	CategoryLearning      = "learning"
	CategoryImpact        = "impact"
	CategoryProcess       = "process"
)

// Categories lists all valid log categories.
var Categories = []string{
	CategoryLaunch,
	CategoryAchievement,
	CategoryCollaboration,
	CategoryLearning,
	CategoryImpact,
	CategoryProcess,
}

// GitHub activity types.
const (
	ActivityCommit = "commit"
	ActivityPR     = "pr"
	ActivityIssue  = "issue"
)

// Profile is one user's account record.
type Profile struct {
	ID                uuid.UUID `json:"id"`
	Email             string    `json:"email"`
	PasswordHash      string    `json:"-"`
	FullName          *string   `json:"full_name"`
	Headline          *string   `json:"headline"`
	Summary           *string   `json:"summary"`
	Skills            []string  `json:"skills"`
	GitHubUsername    *string   `json:"github_username"`
	GitHubAccessToken *string   `json:"-"`
	ResumePath        *string   `json:"resume_path"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Experience is a job, project, education, or volunteer record.
type Experience struct {
	ID              uuid.UUID  `json:"id"`
	UserID          uuid.UUID  `json:"user_id"`
	Type            string     `json:"type"`
	Title           string     `json:"title"`
	Organization    string     `json:"organization"`
	Location        *string    `json:"location"`
	StartDate       *time.Time `json:"start_date"`
	EndDate         *time.Time `json:"end_date"`
	IsCurrent       bool       `json:"is_current"`
	Description     *string    `json:"description"`
	OriginalBullets []string   `json:"original_bullets"`
	Source          string     `json:"source"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// ExperienceRef is the joined summary attached to a log listing.
type ExperienceRef struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	Organization string    `json:"organization"`
	IsCurrent    bool      `json:"is_current"`
}

// Log is one accomplishment entry. A log holds a weak reference to its
// experience: it can exist without one, and deleting the experience leaves
// the log uncategorized rather than invalid.
type Log struct {
	ID              uuid.UUID      `json:"id"`
	UserID          uuid.UUID      `json:"user_id"`
	ExperienceID    *uuid.UUID     `json:"experience_id"`
	RawInput        string         `json:"raw_input"`
	InputType       string         `json:"input_type"`
	ProcessedBullet *string        `json:"processed_bullet"`
	Category        *string        `json:"category"`
	Tags            []string       `json:"tags"`
	ImpactScore     *int           `json:"impact_score"`
	OccurredAt      *time.Time     `json:"occurred_at"`
	IsEdited        bool           `json:"is_edited"`
	NeedsReview     bool           `json:"needs_review"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	Experience      *ExperienceRef `json:"experience,omitempty"`
}

// GitHubActivity is a cached external event, deduplicated by GitHubID.
type GitHubActivity struct {
	ID              uuid.UUID  `json:"id"`
	UserID          uuid.UUID  `json:"user_id"`
	GitHubID        string     `json:"github_id"`
	Type            string     `json:"type"`
	Title           string     `json:"title"`
	Description     *string    `json:"description"`
	RepoName        string     `json:"repo_name"`
	URL             string     `json:"url"`
	OccurredAt      time.Time  `json:"occurred_at"`
	ImportedToLogID *uuid.UUID `json:"imported_to_log_id"`
	CreatedAt       time.Time  `json:"created_at"`
}

// ValidCategory reports whether c is one of the fixed log categories.
func ValidCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}
