package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateLog inserts a log row and returns its ID.
func (db *DB) CreateLog(ctx context.Context, l *Log) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO logs
			(user_id, experience_id, raw_input, input_type, processed_bullet,
			 category, tags, impact_score, occurred_at, is_edited, needs_review)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id`,
		l.UserID, l.ExperienceID, l.RawInput, l.InputType, l.ProcessedBullet,
		l.Category, l.Tags, l.ImpactScore, l.OccurredAt, l.IsEdited, l.NeedsReview,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create log: %w", err)
	}
	return id, nil
}

const logColumns = `l.id, l.user_id, l.experience_id, l.raw_input, l.input_type,
	l.processed_bullet, l.category, COALESCE(l.tags, '{}'), l.impact_score,
	l.occurred_at, l.is_edited, l.needs_review, l.created_at, l.updated_at,
	e.id, e.title, e.organization, e.is_current`

func scanLog(row pgx.Row) (*Log, error) {
	var l Log
	var refID *uuid.UUID
	var refTitle, refOrg *string
	var refCurrent *bool
	err := row.Scan(&l.ID, &l.UserID, &l.ExperienceID, &l.RawInput, &l.InputType,
		&l.ProcessedBullet, &l.Category, &l.Tags, &l.ImpactScore, &l.OccurredAt,
		&l.IsEdited, &l.NeedsReview, &l.CreatedAt, &l.UpdatedAt,
		&refID, &refTitle, &refOrg, &refCurrent)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan log: %w", err)
	}
	if refID != nil {
		l.Experience = &ExperienceRef{
			ID:           *refID,
			Title:        *refTitle,
			Organization: *refOrg,
			IsCurrent:    *refCurrent,
		}
	}
	return &l, nil
}

// GetLog retrieves one log with its joined experience summary. Returns nil
// when absent or owned by a different user.
func (db *DB) GetLog(ctx context.Context, userID, logID uuid.UUID) (*Log, error) {
	return scanLog(db.pool.QueryRow(ctx,
		`SELECT `+logColumns+`
		 FROM logs l
		 LEFT JOIN experiences e ON e.id = l.experience_id
		 WHERE l.id = $1 AND l.user_id = $2`,
		logID, userID))
}

func (db *DB) queryLogs(ctx context.Context, query string, args ...any) ([]Log, error) {
	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list logs: %w", err)
	}
	defer rows.Close()

	var logs []Log
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, *l)
	}
	return logs, nil
}

// ListLogs retrieves a user's logs newest first, each with its joined
// experience summary when the reference is still live.
func (db *DB) ListLogs(ctx context.Context, userID uuid.UUID) ([]Log, error) {
	return db.queryLogs(ctx,
		`SELECT `+logColumns+`
		 FROM logs l
		 LEFT JOIN experiences e ON e.id = l.experience_id
		 WHERE l.user_id = $1
		 ORDER BY l.created_at DESC`,
		userID)
}

// ListLogsByImpact retrieves a user's logs ordered by impact score
// descending, unscored logs last.
func (db *DB) ListLogsByImpact(ctx context.Context, userID uuid.UUID) ([]Log, error) {
	return db.queryLogs(ctx,
		`SELECT `+logColumns+`
		 FROM logs l
		 LEFT JOIN experiences e ON e.id = l.experience_id
		 WHERE l.user_id = $1
		 ORDER BY l.impact_score DESC NULLS LAST, l.created_at DESC`,
		userID)
}

// LogUpdate holds the editable log fields. Nil pointers leave the column
// unchanged; Tags is replaced when non-nil. SetExperienceID distinguishes
// "clear the reference" from "leave it alone".
type LogUpdate struct {
	RawInput        *string
	ProcessedBullet *string
	ExperienceID    *uuid.UUID
	SetExperienceID bool
	Category        *string
	Tags            []string
	OccurredAt      *string
}

// UpdateLog applies a partial edit to a log and marks it edited.
func (db *DB) UpdateLog(ctx context.Context, userID, logID uuid.UUID, upd *LogUpdate) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE logs SET
			raw_input = COALESCE($3, raw_input),
			processed_bullet = COALESCE($4, processed_bullet),
			experience_id = CASE WHEN $5 THEN $6 ELSE experience_id END,
			category = COALESCE($7, category),
			tags = COALESCE($8, tags),
			occurred_at = COALESCE($9::date, occurred_at),
			is_edited = TRUE,
			updated_at = NOW()
		 WHERE id = $1 AND user_id = $2`,
		logID, userID, upd.RawInput, upd.ProcessedBullet,
		upd.SetExperienceID, upd.ExperienceID,
		upd.Category, upd.Tags, upd.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update log: %w", err)
	}
	if result.RowsAffected() == 0 {
		return &NotFoundError{Kind: "log", ID: logID}
	}
	return nil
}

// DeleteLog removes a log owned by the given user.
func (db *DB) DeleteLog(ctx context.Context, userID, logID uuid.UUID) error {
	result, err := db.pool.Exec(ctx,
		`DELETE FROM logs WHERE id = $1 AND user_id = $2`,
		logID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete log: %w", err)
	}
	if result.RowsAffected() == 0 {
		return &NotFoundError{Kind: "log", ID: logID}
	}
	return nil
}
