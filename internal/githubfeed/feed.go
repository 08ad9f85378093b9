// Package githubfeed caches a user's recent GitHub activity and imports
// selected events as journal logs. Imported events go through the same
// enhancement path as typed entries.
package githubfeed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/go-github/v29/github"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/workjournal/internal/db"
	"github.com/jonathan/workjournal/internal/enhance"
)

// LookbackDays is how far back activity refresh searches.
const LookbackDays = 30

// PerSearchLimit caps results per search query.
const PerSearchLimit = 10

// PendingLimit caps the pending list returned to clients.
const PendingLimit = 20

// Store is the subset of journal persistence the feed uses.
type Store interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*db.Profile, error)
	UpsertActivity(ctx context.Context, a *db.GitHubActivity) (bool, error)
	ListPendingActivities(ctx context.Context, userID uuid.UUID, limit int) ([]db.GitHubActivity, error)
	GetActivity(ctx context.Context, userID, activityID uuid.UUID) (*db.GitHubActivity, error)
	MarkActivityImported(ctx context.Context, activityID, logID uuid.UUID) error
	ListExperiences(ctx context.Context, userID uuid.UUID) ([]db.Experience, error)
	CreateLog(ctx context.Context, l *db.Log) (uuid.UUID, error)
}

// Enhancer processes a raw entry into a structured log.
type Enhancer interface {
	Enhance(ctx context.Context, rawInput string, experiences []db.Experience) (*enhance.Result, error)
}

// issueSearcher is the slice of the GitHub API the feed calls.
type issueSearcher interface {
	Issues(ctx context.Context, query string, opts *github.SearchOptions) (*github.IssuesSearchResult, *github.Response, error)
}

// Service refreshes and imports GitHub activity.
type Service struct {
	store    Store
	enhancer Enhancer
	search   func(ctx context.Context, token string) issueSearcher
}

// NewService creates a feed service backed by the real GitHub API.
func NewService(store Store, enhancer Enhancer) *Service {
	return &Service{
		store:    store,
		enhancer: enhancer,
		search: func(ctx context.Context, token string) issueSearcher {
			httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
			return github.NewClient(httpClient).Search
		},
	}
}

// Refresh searches the user's recent pull requests and issues and caches
// new ones. Returns the number of newly cached activities; previously seen
// events are skipped, so refresh is idempotent.
func (s *Service) Refresh(ctx context.Context, userID uuid.UUID) (int, error) {
	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return 0, err
	}
	if profile == nil || profile.GitHubUsername == nil || profile.GitHubAccessToken == nil {
		return 0, &NotConnectedError{UserID: userID.String()}
	}

	username := *profile.GitHubUsername
	searcher := s.search(ctx, *profile.GitHubAccessToken)
	since := time.Now().AddDate(0, 0, -LookbackDays).Format("2006-01-02")

	var prs, issues []github.Issue
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		results, err := searchRecent(gctx, searcher, fmt.Sprintf("author:%s type:pr created:>=%s", username, since))
		if err != nil {
			return err
		}
		prs = results
		return nil
	})
	g.Go(func() error {
		results, err := searchRecent(gctx, searcher, fmt.Sprintf("author:%s type:issue created:>=%s", username, since))
		if err != nil {
			return err
		}
		issues = results
		return nil
	})
	if err := g.Wait(); err != nil {
		return 0, err
	}

	added := 0
	for _, item := range prs {
		inserted, err := s.cache(ctx, userID, item, db.ActivityPR)
		if err != nil {
			return added, err
		}
		if inserted {
			added++
		}
	}
	for _, item := range issues {
		inserted, err := s.cache(ctx, userID, item, db.ActivityIssue)
		if err != nil {
			return added, err
		}
		if inserted {
			added++
		}
	}
	return added, nil
}

func searchRecent(ctx context.Context, searcher issueSearcher, query string) ([]github.Issue, error) {
	result, _, err := searcher.Issues(ctx, query, &github.SearchOptions{
		Sort:        "created",
		Order:       "desc",
		ListOptions: github.ListOptions{PerPage: PerSearchLimit},
	})
	if err != nil {
		return nil, &APICallError{Message: fmt.Sprintf("search %q failed", query), Cause: err}
	}
	if len(result.Issues) > PerSearchLimit {
		return result.Issues[:PerSearchLimit], nil
	}
	return result.Issues, nil
}

func (s *Service) cache(ctx context.Context, userID uuid.UUID, item github.Issue, activityType string) (bool, error) {
	activity := &db.GitHubActivity{
		UserID:     userID,
		GitHubID:   fmt.Sprintf("%s-%d", activityType, item.GetID()),
		Type:       activityType,
		Title:      item.GetTitle(),
		RepoName:   repoFromURL(item.GetRepositoryURL()),
		URL:        item.GetHTMLURL(),
		OccurredAt: item.GetCreatedAt(),
	}
	if body := item.GetBody(); body != "" {
		activity.Description = &body
	}
	return s.store.UpsertActivity(ctx, activity)
}

// repoFromURL extracts "owner/repo" from an API repository URL.
func repoFromURL(apiURL string) string {
	parts := strings.Split(apiURL, "/repos/")
	if len(parts) != 2 {
		return apiURL
	}
	return parts[1]
}

// ListPending returns the newest activities not yet imported, capped at
// PendingLimit.
func (s *Service) ListPending(ctx context.Context, userID uuid.UUID) ([]db.GitHubActivity, error) {
	return s.store.ListPendingActivities(ctx, userID, PendingLimit)
}

// Import turns one cached activity into an enhanced log and stamps the
// activity with the resulting log ID. Importing the same activity twice
// fails with AlreadyImportedError.
func (s *Service) Import(ctx context.Context, userID, activityID uuid.UUID) (*db.Log, error) {
	activity, err := s.store.GetActivity(ctx, userID, activityID)
	if err != nil {
		return nil, err
	}
	if activity == nil {
		return nil, &NotFoundError{ActivityID: activityID.String()}
	}
	if activity.ImportedToLogID != nil {
		return nil, &AlreadyImportedError{ActivityID: activityID.String()}
	}

	experiences, err := s.store.ListExperiences(ctx, userID)
	if err != nil {
		return nil, err
	}

	phrase := importPhrase(activity)
	result, err := s.enhancer.Enhance(ctx, phrase, experiences)
	if err != nil {
		return nil, err
	}

	occurredAt := activity.OccurredAt
	log := &db.Log{
		UserID:          userID,
		ExperienceID:    result.ExperienceID,
		RawInput:        phrase,
		InputType:       db.InputGitHub,
		ProcessedBullet: &result.ProcessedBullet,
		Category:        &result.Category,
		Tags:            result.Tags,
		ImpactScore:     &result.ImpactScore,
		OccurredAt:      &occurredAt,
		NeedsReview:     result.NeedsReview,
	}
	logID, err := s.store.CreateLog(ctx, log)
	if err != nil {
		return nil, err
	}
	log.ID = logID

	if err := s.store.MarkActivityImported(ctx, activityID, logID); err != nil {
		return nil, err
	}
	return log, nil
}

func importPhrase(a *db.GitHubActivity) string {
	switch a.Type {
	case db.ActivityPR:
		return fmt.Sprintf("Opened PR: %s in %s", a.Title, a.RepoName)
	case db.ActivityCommit:
		return fmt.Sprintf("Committed: %s to %s", a.Title, a.RepoName)
	default:
		return fmt.Sprintf("Opened issue: %s in %s", a.Title, a.RepoName)
	}
}
