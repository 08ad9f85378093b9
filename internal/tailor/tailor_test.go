package tailor

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/workjournal/internal/db"
	"github.com/jonathan/workjournal/internal/llm"
)

type fakeClient struct {
	reply   string
	err     error
	prompts []string
	calls   int
}

func (f *fakeClient) GenerateContent(_ context.Context, prompt string, _ llm.ModelTier, _ ...llm.Option) (string, error) {
	return f.generate(prompt)
}

func (f *fakeClient) GenerateJSON(_ context.Context, prompt string, _ llm.ModelTier, _ ...llm.Option) (string, error) {
	return f.generate(prompt)
}

func (f *fakeClient) generate(prompt string) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeClient) Close() error { return nil }

const validReply = `{
	"resume": {
		"name": "Jane Doe",
		"headline": "Backend Engineer",
		"summary": "Engineer with five years of distributed systems experience.",
		"contact": {"email": "jane@example.com"},
		"experience": [
			{
				"title": "Senior Engineer",
				"organization": "Acme",
				"location": "Remote",
				"dates": "Mar 2022 - Present",
				"bullets": ["Shipped payment retries, cutting failed charges by 30%"]
			}
		],
		"education": [
			{"degree": "BS Computer Science", "school": "State University", "dates": "2014 - 2018"}
		],
		"skills": ["Go", "PostgreSQL"]
	},
	"tailoring_notes": ["Emphasized payments work"],
	"match_score": 82,
	"suggestions": ["Add more detail on Kubernetes"]
}`

func testProfile() *db.Profile {
	name := "Jane Doe"
	return &db.Profile{
		ID:       uuid.New(),
		Email:    "jane@example.com",
		FullName: &name,
		Skills:   []string{"Go", "PostgreSQL"},
	}
}

func testJob() Job {
	return Job{
		Title:       "Staff Engineer",
		Company:     "Globex",
		Description: "Design and operate payment systems at scale.",
	}
}

func testLog(bullet, inputType string, impact int) db.Log {
	category := "launch"
	return db.Log{
		ID:              uuid.New(),
		RawInput:        "raw",
		InputType:       inputType,
		ProcessedBullet: &bullet,
		Category:        &category,
		ImpactScore:     &impact,
	}
}

func TestTailorSuccess(t *testing.T) {
	client := &fakeClient{reply: validReply}
	svc := NewService(client)

	result, err := svc.Tailor(context.Background(), testProfile(), nil, nil, testJob())
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe", result.Resume.Name)
	assert.Equal(t, 82, result.MatchScore)
	require.Len(t, result.Resume.Experience, 1)
	assert.Equal(t, "Acme", result.Resume.Experience[0].Organization)
	assert.Equal(t, []string{"Emphasized payments work"}, result.TailoringNotes)
}

func TestTailorRequiredFields(t *testing.T) {
	client := &fakeClient{reply: validReply}
	svc := NewService(client)

	cases := []struct {
		name string
		job  Job
	}{
		{"missing title", Job{Company: "Globex", Description: "desc"}},
		{"missing company", Job{Title: "Engineer", Description: "desc"}},
		{"blank description", Job{Title: "Engineer", Company: "Globex", Description: "  \n "}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Tailor(context.Background(), testProfile(), nil, nil, tc.job)
			require.Error(t, err)

			var invalidErr *InvalidInputError
			assert.ErrorAs(t, err, &invalidErr)
		})
	}
	assert.Zero(t, client.calls, "validation failures must not reach the model")
}

func TestTailorPromptIncludesProfileAndLogs(t *testing.T) {
	client := &fakeClient{reply: validReply}
	svc := NewService(client)

	start := time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC)
	experiences := []db.Experience{{
		Type:         db.ExperienceJob,
		Title:        "Senior Engineer",
		Organization: "Acme",
		StartDate:    &start,
		IsCurrent:    true,
	}}
	logs := []db.Log{testLog("Cut deploy time in half", db.InputText, 4)}

	_, err := svc.Tailor(context.Background(), testProfile(), experiences, logs, testJob())
	require.NoError(t, err)

	require.Len(t, client.prompts, 1)
	prompt := client.prompts[0]
	assert.Contains(t, prompt, "Jane Doe")
	assert.Contains(t, prompt, "Senior Engineer")
	assert.Contains(t, prompt, "Mar 2022 - Present")
	assert.Contains(t, prompt, "Cut deploy time in half")
	assert.Contains(t, prompt, "(impact 4/5)")
	assert.Contains(t, prompt, "Staff Engineer")
	assert.Contains(t, prompt, "Globex")
}

func TestTailorSnapshotAttachesExperienceLogs(t *testing.T) {
	client := &fakeClient{reply: validReply}
	svc := NewService(client)

	experienceID := uuid.New()
	experiences := []db.Experience{{
		ID:           experienceID,
		Type:         db.ExperienceJob,
		Title:        "Engineer",
		Organization: "Acme",
	}}

	linked := testLog("Cut CI time by 40% with layer caching", db.InputText, 4)
	linked.ExperienceID = &experienceID
	unlinked := testLog("Unattached accomplishment", db.InputText, 2)

	_, err := svc.Tailor(context.Background(), testProfile(), experiences, []db.Log{linked, unlinked}, testJob())
	require.NoError(t, err)

	prompt := client.prompts[0]
	snapshot := prompt[:strings.Index(prompt, "RECENT WORK LOGS")]
	assert.Contains(t, snapshot, `"recent_logs"`)
	assert.Contains(t, snapshot, "Cut CI time by 40% with layer caching",
		"linked log bullets ride along with their experience")
	assert.NotContains(t, snapshot, "Unattached accomplishment")
}

func TestTailorSnapshotEmptyCollections(t *testing.T) {
	client := &fakeClient{reply: validReply}
	svc := NewService(client)

	profile := testProfile()
	profile.Skills = nil
	experiences := []db.Experience{{
		ID:           uuid.New(),
		Type:         db.ExperienceJob,
		Title:        "Engineer",
		Organization: "Acme",
	}}

	_, err := svc.Tailor(context.Background(), profile, experiences, nil, testJob())
	require.NoError(t, err)

	prompt := client.prompts[0]
	assert.NotContains(t, prompt, `"original_bullets": null`)
	assert.NotContains(t, prompt, `"recent_logs": null`)
	assert.NotContains(t, prompt, `"skills": null`)
	assert.Contains(t, prompt, `"original_bullets": []`)
}

func TestTailorExcludesResumeSourcedLogs(t *testing.T) {
	client := &fakeClient{reply: validReply}
	svc := NewService(client)

	logs := []db.Log{
		testLog("From an old resume bullet", db.InputResume, 3),
		testLog("Fresh accomplishment", db.InputText, 3),
	}

	_, err := svc.Tailor(context.Background(), testProfile(), nil, logs, testJob())
	require.NoError(t, err)

	prompt := client.prompts[0]
	assert.NotContains(t, prompt, "From an old resume bullet")
	assert.Contains(t, prompt, "Fresh accomplishment")
}

func TestTailorFencedReply(t *testing.T) {
	client := &fakeClient{reply: "Sure, here it is:\n```json\n" + validReply + "\n```"}
	svc := NewService(client)

	result, err := svc.Tailor(context.Background(), testProfile(), nil, nil, testJob())
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", result.Resume.Name)
}

func TestTailorSchemaViolation(t *testing.T) {
	// match_score above 100 violates the reply contract
	bad := `{
		"resume": {"name": "J", "headline": "H", "summary": "S", "experience": [], "skills": []},
		"tailoring_notes": [],
		"match_score": 140,
		"suggestions": []
	}`
	svc := NewService(&fakeClient{reply: bad})

	_, err := svc.Tailor(context.Background(), testProfile(), nil, nil, testJob())
	require.Error(t, err)

	var parseErr *ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestTailorModelFailure(t *testing.T) {
	svc := NewService(&fakeClient{err: fmt.Errorf("deadline exceeded")})

	_, err := svc.Tailor(context.Background(), testProfile(), nil, nil, testJob())
	require.Error(t, err)

	var apiErr *APICallError
	assert.ErrorAs(t, err, &apiErr)
}
