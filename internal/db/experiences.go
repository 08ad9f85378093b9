package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// CreateExperience inserts an experience row and returns its ID.
func (db *DB) CreateExperience(ctx context.Context, e *Experience) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO experiences
			(user_id, type, title, organization, location, start_date, end_date,
			 is_current, description, original_bullets, source)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id`,
		e.UserID, e.Type, e.Title, e.Organization, e.Location, e.StartDate,
		e.EndDate, e.IsCurrent, e.Description, e.OriginalBullets, e.Source,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create experience: %w", err)
	}
	return id, nil
}

// ListExperiences retrieves a user's experiences, current positions first,
// then most recent start date first.
func (db *DB) ListExperiences(ctx context.Context, userID uuid.UUID) ([]Experience, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, user_id, type, title, organization, location, start_date,
			end_date, is_current, description, COALESCE(original_bullets, '{}'),
			source, created_at, updated_at
		 FROM experiences
		 WHERE user_id = $1
		 ORDER BY is_current DESC, start_date DESC NULLS LAST`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list experiences: %w", err)
	}
	defer rows.Close()

	var experiences []Experience
	for rows.Next() {
		var e Experience
		if err := rows.Scan(&e.ID, &e.UserID, &e.Type, &e.Title, &e.Organization,
			&e.Location, &e.StartDate, &e.EndDate, &e.IsCurrent, &e.Description,
			&e.OriginalBullets, &e.Source, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan experience: %w", err)
		}
		experiences = append(experiences, e)
	}
	return experiences, nil
}

// UpdateExperience replaces the mutable fields of an experience owned by the
// given user.
func (db *DB) UpdateExperience(ctx context.Context, userID uuid.UUID, e *Experience) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE experiences SET
			type = $3, title = $4, organization = $5, location = $6,
			start_date = $7, end_date = $8, is_current = $9, description = $10,
			updated_at = NOW()
		 WHERE id = $1 AND user_id = $2`,
		e.ID, userID, e.Type, e.Title, e.Organization, e.Location,
		e.StartDate, e.EndDate, e.IsCurrent, e.Description,
	)
	if err != nil {
		return fmt.Errorf("failed to update experience: %w", err)
	}
	if result.RowsAffected() == 0 {
		return &NotFoundError{Kind: "experience", ID: e.ID}
	}
	return nil
}

// DeleteExperience removes an experience. Logs referencing it keep existing
// with a nulled experience_id (ON DELETE SET NULL in the schema).
func (db *DB) DeleteExperience(ctx context.Context, userID, experienceID uuid.UUID) error {
	result, err := db.pool.Exec(ctx,
		`DELETE FROM experiences WHERE id = $1 AND user_id = $2`,
		experienceID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete experience: %w", err)
	}
	if result.RowsAffected() == 0 {
		return &NotFoundError{Kind: "experience", ID: experienceID}
	}
	return nil
}
