package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/workjournal/internal/db"
)

var seedCmd = &cobra.Command{
	Use:   "seed [user-id]",
	Short: "Seed demo data for a user",
	Long: `Populate an existing account with sample experiences and logs for local
development. The target user comes from the positional argument or the
DEMO_USER_ID environment variable.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}

	rawID := os.Getenv("DEMO_USER_ID")
	if len(args) > 0 {
		rawID = args[0]
	}
	if rawID == "" {
		return fmt.Errorf("pass a user ID or set DEMO_USER_ID (register an account first)")
	}
	userID, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("invalid user ID %q: %v", rawID, err)
	}

	ctx := cmd.Context()
	database, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	profile, err := database.GetProfile(ctx, userID)
	if err != nil {
		return err
	}
	if profile == nil {
		return fmt.Errorf("no account with ID %s", userID)
	}

	if err := seedUser(ctx, database, userID); err != nil {
		return err
	}
	fmt.Printf("Seeded demo data for %s\n", profile.Email)
	return nil
}

func seedUser(ctx context.Context, database *db.DB, userID uuid.UUID) error {
	fullName := "Jordan Diaz"
	headline := "Backend Engineer"
	summary := "Backend engineer focused on reliability and developer tooling."
	if err := database.UpdateProfile(ctx, userID, &db.ProfileUpdate{
		FullName: &fullName,
		Headline: &headline,
		Summary:  &summary,
		Skills:   []string{"Go", "PostgreSQL", "Kubernetes", "gRPC"},
	}); err != nil {
		return err
	}

	acmeStart := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	acmeDesc := "Platform team owning the internal deploy pipeline."
	acmeID, err := database.CreateExperience(ctx, &db.Experience{
		UserID:       userID,
		Type:         db.ExperienceJob,
		Title:        "Backend Engineer",
		Organization: "Acme Corp",
		StartDate:    &acmeStart,
		IsCurrent:    true,
		Description:  &acmeDesc,
		Source:       db.SourceManual,
	})
	if err != nil {
		return err
	}

	priorStart := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	priorEnd := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
	priorID, err := database.CreateExperience(ctx, &db.Experience{
		UserID:       userID,
		Type:         db.ExperienceJob,
		Title:        "Software Engineer",
		Organization: "Initech",
		StartDate:    &priorStart,
		EndDate:      &priorEnd,
		Source:       db.SourceManual,
	})
	if err != nil {
		return err
	}

	type seedLog struct {
		raw      string
		bullet   string
		category string
		tags     []string
		impact   int
		expID    uuid.UUID
		daysAgo  int
	}
	logs := []seedLog{
		{
			raw:      "cut deploy times in half by caching docker layers",
			bullet:   "Reduced deployment time by 50% by introducing Docker layer caching in the CI pipeline",
			category: db.CategoryImpact,
			tags:     []string{"ci", "docker", "performance"},
			impact:   4, expID: acmeID, daysAgo: 3,
		},
		{
			raw:      "shipped the new audit log service",
			bullet:   "Launched an audit logging service consumed by 12 internal teams",
			category: db.CategoryLaunch,
			tags:     []string{"go", "grpc"},
			impact:   5, expID: acmeID, daysAgo: 10,
		},
		{
			raw:      "paired with the data team on their ingestion outage",
			bullet:   "Partnered with the data team to resolve a pipeline outage, restoring ingestion within two hours",
			category: db.CategoryCollaboration,
			tags:     []string{"incident-response"},
			impact:   3, expID: acmeID, daysAgo: 17,
		},
		{
			raw:      "got the cka cert",
			bullet:   "Earned the Certified Kubernetes Administrator certification",
			category: db.CategoryLearning,
			tags:     []string{"kubernetes"},
			impact:   2, expID: priorID, daysAgo: 40,
		},
		{
			raw:      "moved the team to trunk based development",
			bullet:   "Migrated the team to trunk-based development, cutting merge conflicts by 70%",
			category: db.CategoryProcess,
			tags:     []string{"git", "process"},
			impact:   3, expID: priorID, daysAgo: 60,
		},
	}

	for _, l := range logs {
		occurred := time.Now().AddDate(0, 0, -l.daysAgo)
		expID := l.expID
		bullet := l.bullet
		category := l.category
		impact := l.impact
		if _, err := database.CreateLog(ctx, &db.Log{
			UserID:          userID,
			ExperienceID:    &expID,
			RawInput:        l.raw,
			InputType:       db.InputText,
			ProcessedBullet: &bullet,
			Category:        &category,
			Tags:            l.tags,
			ImpactScore:     &impact,
			OccurredAt:      &occurred,
		}); err != nil {
			return err
		}
	}
	return nil
}
