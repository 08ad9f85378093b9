package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateProfile inserts a new profile with credentials and returns its ID.
func (db *DB) CreateProfile(ctx context.Context, email, passwordHash string) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO profiles (email, password_hash)
		 VALUES ($1, $2)
		 RETURNING id`,
		email, passwordHash,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create profile: %w", err)
	}
	return id, nil
}

const profileColumns = `id, email, password_hash, full_name, headline, summary,
	COALESCE(skills, '{}'), github_username, github_access_token, resume_path,
	created_at, updated_at`

func scanProfile(row pgx.Row) (*Profile, error) {
	var p Profile
	err := row.Scan(&p.ID, &p.Email, &p.PasswordHash, &p.FullName, &p.Headline,
		&p.Summary, &p.Skills, &p.GitHubUsername, &p.GitHubAccessToken,
		&p.ResumePath, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan profile: %w", err)
	}
	return &p, nil
}

// GetProfile retrieves a profile by user ID. Returns nil when absent.
func (db *DB) GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	return scanProfile(db.pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = $1`, userID))
}

// GetProfileByEmail retrieves a profile by email. Returns nil when absent.
func (db *DB) GetProfileByEmail(ctx context.Context, email string) (*Profile, error) {
	return scanProfile(db.pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE email = $1`, email))
}

// ProfileUpdate holds the user-editable profile fields. Nil pointers leave
// the column unchanged; Skills is replaced when non-nil.
type ProfileUpdate struct {
	FullName *string
	Headline *string
	Summary  *string
	Skills   []string
}

// UpdateProfile applies a partial update to a profile.
func (db *DB) UpdateProfile(ctx context.Context, userID uuid.UUID, upd *ProfileUpdate) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE profiles SET
			full_name = COALESCE($2, full_name),
			headline = COALESCE($3, headline),
			summary = COALESCE($4, summary),
			skills = COALESCE($5, skills),
			updated_at = NOW()
		 WHERE id = $1`,
		userID, upd.FullName, upd.Headline, upd.Summary, upd.Skills,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if result.RowsAffected() == 0 {
		return &NotFoundError{Kind: "profile", ID: userID}
	}
	return nil
}

// SetResumePath stores the blob-store path of the uploaded resume.
func (db *DB) SetResumePath(ctx context.Context, userID uuid.UUID, path string) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE profiles SET resume_path = $2, updated_at = NOW() WHERE id = $1`,
		userID, path,
	)
	if err != nil {
		return fmt.Errorf("failed to set resume path: %w", err)
	}
	if result.RowsAffected() == 0 {
		return &NotFoundError{Kind: "profile", ID: userID}
	}
	return nil
}

// SetGitHubCredentials stores the linked GitHub username and OAuth token.
func (db *DB) SetGitHubCredentials(ctx context.Context, userID uuid.UUID, username, accessToken string) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE profiles SET github_username = $2, github_access_token = $3, updated_at = NOW()
		 WHERE id = $1`,
		userID, username, accessToken,
	)
	if err != nil {
		return fmt.Errorf("failed to set github credentials: %w", err)
	}
	if result.RowsAffected() == 0 {
		return &NotFoundError{Kind: "profile", ID: userID}
	}
	return nil
}
