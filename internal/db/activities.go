package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UpsertActivity inserts a GitHub activity, or leaves the existing row
// untouched when the same external event was already cached. Returns true
// when a new row was inserted.
func (db *DB) UpsertActivity(ctx context.Context, a *GitHubActivity) (bool, error) {
	result, err := db.pool.Exec(ctx,
		`INSERT INTO github_activities
			(user_id, github_id, type, title, description, repo_name, url, occurred_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (user_id, github_id) DO NOTHING`,
		a.UserID, a.GitHubID, a.Type, a.Title, a.Description, a.RepoName,
		a.URL, a.OccurredAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to upsert activity: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

const activityColumns = `id, user_id, github_id, type, title, description,
	repo_name, url, occurred_at, imported_to_log_id, created_at`

func scanActivity(row pgx.Row) (*GitHubActivity, error) {
	var a GitHubActivity
	err := row.Scan(&a.ID, &a.UserID, &a.GitHubID, &a.Type, &a.Title,
		&a.Description, &a.RepoName, &a.URL, &a.OccurredAt,
		&a.ImportedToLogID, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan activity: %w", err)
	}
	return &a, nil
}

// GetActivity retrieves one cached activity owned by the given user.
// Returns nil when absent.
func (db *DB) GetActivity(ctx context.Context, userID, activityID uuid.UUID) (*GitHubActivity, error) {
	return scanActivity(db.pool.QueryRow(ctx,
		`SELECT `+activityColumns+`
		 FROM github_activities
		 WHERE id = $1 AND user_id = $2`,
		activityID, userID))
}

// ListPendingActivities retrieves the most recent activities not yet
// imported as logs, capped at limit.
func (db *DB) ListPendingActivities(ctx context.Context, userID uuid.UUID, limit int) ([]GitHubActivity, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+activityColumns+`
		 FROM github_activities
		 WHERE user_id = $1 AND imported_to_log_id IS NULL
		 ORDER BY occurred_at DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending activities: %w", err)
	}
	defer rows.Close()

	var activities []GitHubActivity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, *a)
	}
	return activities, nil
}

// MarkActivityImported stamps an activity with the log it produced. The
// guard on imported_to_log_id keeps a concurrent double import from
// overwriting the first stamp.
func (db *DB) MarkActivityImported(ctx context.Context, activityID, logID uuid.UUID) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE github_activities SET imported_to_log_id = $2
		 WHERE id = $1 AND imported_to_log_id IS NULL`,
		activityID, logID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark activity imported: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("activity not found or already imported: %s", activityID)
	}
	return nil
}
