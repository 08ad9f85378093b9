// Package server provides the HTTP REST API for the work journal.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/workjournal/internal/blob"
	"github.com/jonathan/workjournal/internal/config"
	"github.com/jonathan/workjournal/internal/db"
	"github.com/jonathan/workjournal/internal/enhance"
	"github.com/jonathan/workjournal/internal/fetch"
	"github.com/jonathan/workjournal/internal/githubfeed"
	"github.com/jonathan/workjournal/internal/ingest"
	"github.com/jonathan/workjournal/internal/llm"
	"github.com/jonathan/workjournal/internal/server/middleware"
	"github.com/jonathan/workjournal/internal/server/ratelimit"
	"github.com/jonathan/workjournal/internal/tailor"
	"github.com/jonathan/workjournal/internal/voice"
)

// Store is the journal persistence surface the handlers use.
type Store interface {
	CreateProfile(ctx context.Context, email, passwordHash string) (uuid.UUID, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*db.Profile, error)
	GetProfileByEmail(ctx context.Context, email string) (*db.Profile, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, upd *db.ProfileUpdate) error
	SetResumePath(ctx context.Context, userID uuid.UUID, path string) error
	SetGitHubCredentials(ctx context.Context, userID uuid.UUID, username, accessToken string) error

	CreateExperience(ctx context.Context, e *db.Experience) (uuid.UUID, error)
	ListExperiences(ctx context.Context, userID uuid.UUID) ([]db.Experience, error)
	UpdateExperience(ctx context.Context, userID uuid.UUID, e *db.Experience) error
	DeleteExperience(ctx context.Context, userID, experienceID uuid.UUID) error

	CreateLog(ctx context.Context, l *db.Log) (uuid.UUID, error)
	GetLog(ctx context.Context, userID, logID uuid.UUID) (*db.Log, error)
	ListLogs(ctx context.Context, userID uuid.UUID) ([]db.Log, error)
	ListLogsByImpact(ctx context.Context, userID uuid.UUID) ([]db.Log, error)
	UpdateLog(ctx context.Context, userID, logID uuid.UUID, upd *db.LogUpdate) error
	DeleteLog(ctx context.Context, userID, logID uuid.UUID) error
}

// Enhancer turns raw input into a structured log.
type Enhancer interface {
	Enhance(ctx context.Context, rawInput string, experiences []db.Experience) (*enhance.Result, error)
}

// ResumeGenerator produces a tailored resume for one job.
type ResumeGenerator interface {
	Tailor(ctx context.Context, profile *db.Profile, experiences []db.Experience, logs []db.Log, job tailor.Job) (*tailor.Result, error)
}

// ResumeIngester parses the stored resume into journal data.
type ResumeIngester interface {
	Ingest(ctx context.Context, userID uuid.UUID) (*ingest.Summary, error)
}

// ActivityFeed refreshes and imports GitHub activity.
type ActivityFeed interface {
	Refresh(ctx context.Context, userID uuid.UUID) (int, error)
	ListPending(ctx context.Context, userID uuid.UUID) ([]db.GitHubActivity, error)
	Import(ctx context.Context, userID, activityID uuid.UUID) (*db.Log, error)
}

// Server is the HTTP API server.
type Server struct {
	httpServer *http.Server

	store       Store
	database    *db.DB
	blobs       blob.Store
	llmClient   llm.Client
	enhancer    Enhancer
	generator   ResumeGenerator
	ingester    ResumeIngester
	feed        ActivityFeed
	transcriber voice.Transcriber
	fetchJob    func(ctx context.Context, url string) (string, error)

	jwtService  *JWTService
	authHandler *AuthHandler
	rateLimiter *ratelimit.Limiter
	cfg         *config.Config
}

// New wires a server against real backends: Postgres, GCS (or an in-memory
// store when no bucket is configured), Gemini, GitHub, and ElevenLabs.
func New(cfg *config.Config) (*Server, error) {
	if err := db.Migrate(context.Background(), cfg.DatabaseURL); err != nil {
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	database, err := db.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	llmClient, err := llm.NewClient(context.Background(), llm.DefaultConfig(), cfg.GeminiAPIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create model client: %w", err)
	}

	var blobs blob.Store
	if cfg.ResumeBucket != "" {
		blobs, err = blob.NewGCSStore(context.Background(), cfg.ResumeBucket)
		if err != nil {
			return nil, fmt.Errorf("failed to create blob store: %w", err)
		}
	} else {
		log.Println("[server] RESUME_BUCKET not set, using in-memory blob store")
		blobs = blob.NewMemoryStore()
	}

	enhancer := enhance.NewService(llmClient)

	fetchOpts := fetch.DefaultOptions()
	fetchOpts.UseBrowser = cfg.FetchWithBrowser

	s := &Server{
		store:       database,
		database:    database,
		blobs:       blobs,
		llmClient:   llmClient,
		enhancer:    enhancer,
		generator:   tailor.NewService(llmClient),
		ingester:    ingest.NewService(database, blobs, llmClient),
		feed:        githubfeed.NewService(database, enhancer),
		transcriber: voice.NewClient(cfg.ElevenLabsAPIKey),
		fetchJob: func(ctx context.Context, url string) (string, error) {
			return fetch.JobDescription(ctx, url, fetchOpts)
		},
		cfg: cfg,
	}

	if err := s.setup(); err != nil {
		return nil, err
	}
	return s, nil
}

// setup initializes auth services, the rate limiter, and routes.
func (s *Server) setup() error {
	passwordConfig, err := config.NewPasswordConfig()
	if err != nil {
		return fmt.Errorf("failed to create password config: %w", err)
	}
	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return fmt.Errorf("failed to create JWT config: %w", err)
	}

	s.jwtService = NewJWTService(jwtConfig)
	s.authHandler = NewAuthHandler(NewUserService(s.store, passwordConfig), s.jwtService)
	s.rateLimiter = ratelimit.NewLimiter(ratelimit.LoadConfig())

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.withRateLimit(s.withLogging(s.withCORS(s.routes()))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // resume generation holds the request open
		IdleTimeout:  60 * time.Second,
	}
	return nil
}

// routes builds the route table. Everything except auth, the OAuth
// callback, and health requires a bearer token.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/auth/register", s.authHandler.Register)
	mux.HandleFunc("POST /v1/auth/login", s.authHandler.Login)
	mux.HandleFunc("GET /v1/github/callback", s.handleGitHubCallback)
	mux.HandleFunc("GET /health", s.handleHealth)

	authed := http.NewServeMux()
	authed.HandleFunc("GET /v1/profile", s.handleGetProfile)
	authed.HandleFunc("PATCH /v1/profile", s.handleUpdateProfile)

	authed.HandleFunc("GET /v1/experiences", s.handleListExperiences)
	authed.HandleFunc("POST /v1/experiences", s.handleCreateExperience)
	authed.HandleFunc("PUT /v1/experiences/{id}", s.handleUpdateExperience)
	authed.HandleFunc("DELETE /v1/experiences/{id}", s.handleDeleteExperience)

	authed.HandleFunc("GET /v1/logs", s.handleListLogs)
	authed.HandleFunc("POST /v1/logs", s.handleCreateLog)
	authed.HandleFunc("GET /v1/logs/{id}", s.handleGetLog)
	authed.HandleFunc("PATCH /v1/logs/{id}", s.handleUpdateLog)
	authed.HandleFunc("DELETE /v1/logs/{id}", s.handleDeleteLog)

	authed.HandleFunc("POST /v1/resume/upload", s.handleResumeUpload)
	authed.HandleFunc("POST /v1/resume/parse", s.handleResumeParse)
	authed.HandleFunc("POST /v1/resume/generate", s.handleResumeGenerate)

	authed.HandleFunc("GET /v1/github/activities", s.handleGitHubActivities)
	authed.HandleFunc("POST /v1/github/import", s.handleGitHubImport)
	authed.HandleFunc("GET /v1/github/connect", s.handleGitHubConnect)

	authed.HandleFunc("POST /v1/voice/transcribe", s.handleVoiceTranscribe)

	requireAuth := middleware.RequireAuth(s.jwtService.AsTokenValidator())
	mux.Handle("/v1/", requireAuth(authed))
	return mux
}

// Start listens until SIGINT/SIGTERM, then drains connections.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	if s.llmClient != nil {
		_ = s.llmClient.Close()
	}
	if s.blobs != nil {
		_ = s.blobs.Close()
	}
	if s.database != nil {
		s.database.Close()
	}
	log.Println("Server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("[%s] %s %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// withRateLimit throttles clients by IP.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(clientIP(r), r.URL.Path, r.Method)
		setRateLimitHeaders(w, info)
		if !allowed {
			if info.RetryAfter > 0 {
				w.Header().Set("Retry-After", fmt.Sprintf("%d", int(info.RetryAfter.Seconds())))
			}
			s.errorResponse(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// serviceError maps a service failure to its HTTP status.
func (s *Server) serviceError(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status == http.StatusInternalServerError {
		log.Printf("[server] internal error: %v", err)
		s.errorResponse(w, status, "internal server error")
		return
	}
	s.errorResponse(w, status, err.Error())
}

// userID pulls the authenticated user from the request context.
func (s *Server) userID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return uuid.Nil, false
	}
	return userID, true
}

// pathID parses the {id} path segment.
func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}
