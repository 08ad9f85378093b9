package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jonathan/workjournal/internal/blob"
	"github.com/jonathan/workjournal/internal/config"
	"github.com/jonathan/workjournal/internal/db"
	"github.com/jonathan/workjournal/internal/enhance"
	"github.com/jonathan/workjournal/internal/ingest"
	"github.com/jonathan/workjournal/internal/server/ratelimit"
	"github.com/jonathan/workjournal/internal/tailor"
)

// fakeStore is an in-memory Store for handler tests.
type fakeStore struct {
	profiles    map[uuid.UUID]*db.Profile
	experiences map[uuid.UUID]*db.Experience
	logs        map[uuid.UUID]*db.Log

	logUpdates []db.LogUpdate
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		profiles:    make(map[uuid.UUID]*db.Profile),
		experiences: make(map[uuid.UUID]*db.Experience),
		logs:        make(map[uuid.UUID]*db.Log),
	}
}

func (f *fakeStore) addProfile(email string) *db.Profile {
	p := &db.Profile{ID: uuid.New(), Email: email, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	f.profiles[p.ID] = p
	return p
}

func (f *fakeStore) CreateProfile(_ context.Context, email, passwordHash string) (uuid.UUID, error) {
	p := &db.Profile{ID: uuid.New(), Email: email, PasswordHash: passwordHash}
	f.profiles[p.ID] = p
	return p.ID, nil
}

func (f *fakeStore) GetProfile(_ context.Context, userID uuid.UUID) (*db.Profile, error) {
	return f.profiles[userID], nil
}

func (f *fakeStore) GetProfileByEmail(_ context.Context, email string) (*db.Profile, error) {
	for _, p := range f.profiles {
		if p.Email == email {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) UpdateProfile(_ context.Context, userID uuid.UUID, upd *db.ProfileUpdate) error {
	p, ok := f.profiles[userID]
	if !ok {
		return &db.NotFoundError{Kind: "profile", ID: userID}
	}
	if upd.FullName != nil {
		p.FullName = upd.FullName
	}
	if upd.Headline != nil {
		p.Headline = upd.Headline
	}
	if upd.Summary != nil {
		p.Summary = upd.Summary
	}
	if upd.Skills != nil {
		p.Skills = upd.Skills
	}
	return nil
}

func (f *fakeStore) SetResumePath(_ context.Context, userID uuid.UUID, path string) error {
	p, ok := f.profiles[userID]
	if !ok {
		return &db.NotFoundError{Kind: "profile", ID: userID}
	}
	p.ResumePath = &path
	return nil
}

func (f *fakeStore) SetGitHubCredentials(_ context.Context, userID uuid.UUID, username, accessToken string) error {
	p, ok := f.profiles[userID]
	if !ok {
		return &db.NotFoundError{Kind: "profile", ID: userID}
	}
	p.GitHubUsername = &username
	p.GitHubAccessToken = &accessToken
	return nil
}

func (f *fakeStore) CreateExperience(_ context.Context, e *db.Experience) (uuid.UUID, error) {
	clone := *e
	clone.ID = uuid.New()
	f.experiences[clone.ID] = &clone
	return clone.ID, nil
}

func (f *fakeStore) ListExperiences(_ context.Context, userID uuid.UUID) ([]db.Experience, error) {
	var out []db.Experience
	for _, e := range f.experiences {
		if e.UserID == userID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateExperience(_ context.Context, userID uuid.UUID, e *db.Experience) error {
	existing, ok := f.experiences[e.ID]
	if !ok || existing.UserID != userID {
		return &db.NotFoundError{Kind: "experience", ID: e.ID}
	}
	clone := *e
	f.experiences[e.ID] = &clone
	return nil
}

func (f *fakeStore) DeleteExperience(_ context.Context, userID, experienceID uuid.UUID) error {
	existing, ok := f.experiences[experienceID]
	if !ok || existing.UserID != userID {
		return &db.NotFoundError{Kind: "experience", ID: experienceID}
	}
	delete(f.experiences, experienceID)
	return nil
}

func (f *fakeStore) CreateLog(_ context.Context, l *db.Log) (uuid.UUID, error) {
	clone := *l
	clone.ID = uuid.New()
	clone.CreatedAt = time.Now()
	f.logs[clone.ID] = &clone
	return clone.ID, nil
}

func (f *fakeStore) GetLog(_ context.Context, userID, logID uuid.UUID) (*db.Log, error) {
	l, ok := f.logs[logID]
	if !ok || l.UserID != userID {
		return nil, nil
	}
	return l, nil
}

func (f *fakeStore) ListLogs(_ context.Context, userID uuid.UUID) ([]db.Log, error) {
	var out []db.Log
	for _, l := range f.logs {
		if l.UserID == userID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeStore) ListLogsByImpact(_ context.Context, userID uuid.UUID) ([]db.Log, error) {
	var out []db.Log
	for _, l := range f.logs {
		if l.UserID == userID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateLog(_ context.Context, userID, logID uuid.UUID, upd *db.LogUpdate) error {
	l, ok := f.logs[logID]
	if !ok || l.UserID != userID {
		return &db.NotFoundError{Kind: "log", ID: logID}
	}
	f.logUpdates = append(f.logUpdates, *upd)
	if upd.RawInput != nil {
		l.RawInput = *upd.RawInput
	}
	if upd.ProcessedBullet != nil {
		l.ProcessedBullet = upd.ProcessedBullet
	}
	if upd.SetExperienceID {
		l.ExperienceID = upd.ExperienceID
	}
	if upd.Category != nil {
		l.Category = upd.Category
	}
	if upd.Tags != nil {
		l.Tags = upd.Tags
	}
	if upd.OccurredAt != nil {
		t, _ := time.Parse("2006-01-02", *upd.OccurredAt)
		l.OccurredAt = &t
	}
	l.IsEdited = true
	return nil
}

func (f *fakeStore) DeleteLog(_ context.Context, userID, logID uuid.UUID) error {
	l, ok := f.logs[logID]
	if !ok || l.UserID != userID {
		return &db.NotFoundError{Kind: "log", ID: logID}
	}
	delete(f.logs, logID)
	return nil
}

type fakeEnhancer struct {
	result *enhance.Result
	err    error
	inputs []string
}

func (f *fakeEnhancer) Enhance(_ context.Context, rawInput string, _ []db.Experience) (*enhance.Result, error) {
	f.inputs = append(f.inputs, rawInput)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeGenerator struct {
	result *tailor.Result
	err    error
	job    tailor.Job
	logs   []db.Log
}

func (f *fakeGenerator) Tailor(_ context.Context, _ *db.Profile, _ []db.Experience, logs []db.Log, job tailor.Job) (*tailor.Result, error) {
	f.job = job
	f.logs = logs
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeIngester struct {
	summary *ingest.Summary
	err     error
	calls   int
}

func (f *fakeIngester) Ingest(_ context.Context, _ uuid.UUID) (*ingest.Summary, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.summary, nil
}

type fakeFeed struct {
	cached    int
	pending   []db.GitHubActivity
	imported  *db.Log
	err       error
	importIDs []uuid.UUID
}

func (f *fakeFeed) Refresh(_ context.Context, _ uuid.UUID) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.cached, nil
}

func (f *fakeFeed) ListPending(_ context.Context, _ uuid.UUID) ([]db.GitHubActivity, error) {
	return f.pending, nil
}

func (f *fakeFeed) Import(_ context.Context, _, activityID uuid.UUID) (*db.Log, error) {
	f.importIDs = append(f.importIDs, activityID)
	if f.err != nil {
		return nil, f.err
	}
	return f.imported, nil
}

type fakeTranscriber struct {
	text string
	err  error
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _ []byte, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type testServer struct {
	*Server
	store       *fakeStore
	enhancer    *fakeEnhancer
	generator   *fakeGenerator
	ingester    *fakeIngester
	feed        *fakeFeed
	transcriber *fakeTranscriber
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := newFakeStore()
	enhancer := &fakeEnhancer{}
	generator := &fakeGenerator{}
	ingester := &fakeIngester{}
	feed := &fakeFeed{}
	transcriber := &fakeTranscriber{}

	jwtService := NewJWTService(&config.JWTConfig{Secret: "test-secret", ExpirationHours: 1})
	passwordConfig := &config.PasswordConfig{BcryptCost: bcrypt.MinCost}

	s := &Server{
		store:       store,
		blobs:       blob.NewMemoryStore(),
		enhancer:    enhancer,
		generator:   generator,
		ingester:    ingester,
		feed:        feed,
		transcriber: transcriber,
		jwtService:  jwtService,
		rateLimiter: ratelimit.NewLimiter(&ratelimit.Config{Enabled: false}),
		cfg: &config.Config{
			Port:               8080,
			GitHubClientID:     "test-client",
			GitHubClientSecret: "test-secret",
			ElevenLabsAPIKey:   "test-key",
			AppBaseURL:         "https://journal.example.com",
		},
	}
	s.authHandler = NewAuthHandler(NewUserService(store, passwordConfig), jwtService)
	t.Cleanup(s.rateLimiter.Stop)

	return &testServer{
		Server:      s,
		store:       store,
		enhancer:    enhancer,
		generator:   generator,
		ingester:    ingester,
		feed:        feed,
		transcriber: transcriber,
	}
}

func TestRoutesRejectMissingToken(t *testing.T) {
	ts := newTestServer(t)
	handler := ts.routes()

	for _, target := range []string{"/v1/profile", "/v1/logs", "/v1/experiences"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, target)
	}
}

func TestRoutesAcceptValidToken(t *testing.T) {
	ts := newTestServer(t)
	profile := ts.store.addProfile("dev@example.com")

	token, err := ts.jwtService.GenerateToken(profile.ID)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	ts.routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "dev@example.com")
}

func TestHealthIsUnauthenticated(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	ts.routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
