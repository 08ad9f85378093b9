package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const githubAuthorizeURL = "https://github.com/login/oauth/authorize"

// Overridable for tests.
var (
	githubTokenURL = "https://github.com/login/oauth/access_token"
	githubUserURL  = "https://api.github.com/user"
)

// handleGitHubActivities handles GET /v1/github/activities. Refreshes the
// activity cache from GitHub, then returns the pending (not yet imported)
// entries.
func (s *Server) handleGitHubActivities(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	cached, err := s.feed.Refresh(r.Context(), userID)
	if err != nil {
		s.serviceError(w, err)
		return
	}

	activities, err := s.feed.ListPending(r.Context(), userID)
	if err != nil {
		s.serviceError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"new_activities": cached,
		"activities":     activities,
	})
}

type importActivityRequest struct {
	ActivityID uuid.UUID `json:"activity_id"`
}

// handleGitHubImport handles POST /v1/github/import. Converts one cached
// activity into an enhanced log.
func (s *Server) handleGitHubImport(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	var req importActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ActivityID == uuid.Nil {
		s.errorResponse(w, http.StatusBadRequest, "activity_id is required")
		return
	}

	entry, err := s.feed.Import(r.Context(), userID, req.ActivityID)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, entry)
}

// handleGitHubConnect handles GET /v1/github/connect. Returns the GitHub
// authorize URL for the client to redirect to. The OAuth state is a short
// token identifying the user, since GitHub calls the callback without our
// Authorization header.
func (s *Server) handleGitHubConnect(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	if s.cfg.GitHubClientID == "" || s.cfg.GitHubClientSecret == "" {
		s.errorResponse(w, http.StatusServiceUnavailable, "GitHub integration is not configured")
		return
	}

	state, err := s.jwtService.GenerateToken(userID)
	if err != nil {
		s.serviceError(w, err)
		return
	}

	q := url.Values{}
	q.Set("client_id", s.cfg.GitHubClientID)
	q.Set("redirect_uri", s.cfg.AppBaseURL+"/v1/github/callback")
	q.Set("scope", "read:user repo")
	q.Set("state", state)

	s.jsonResponse(w, http.StatusOK, map[string]string{
		"authorize_url": githubAuthorizeURL + "?" + q.Encode(),
	})
}

// handleGitHubCallback handles GET /v1/github/callback, the OAuth redirect
// target. Exchanges the code for an access token, resolves the GitHub
// username, and links both to the account named by the state token.
func (s *Server) handleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" || state == "" {
		s.errorResponse(w, http.StatusBadRequest, "code and state are required")
		return
	}

	claims, err := s.jwtService.ValidateToken(state)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "invalid state")
		return
	}
	userID := claims.GetUserID()

	accessToken, err := s.exchangeGitHubCode(r.Context(), code)
	if err != nil {
		s.serviceError(w, err)
		return
	}

	username, err := fetchGitHubUsername(r.Context(), accessToken)
	if err != nil {
		s.serviceError(w, err)
		return
	}

	if err := s.store.SetGitHubCredentials(r.Context(), userID, username, accessToken); err != nil {
		s.serviceError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]string{
		"github_username": username,
		"status":          "connected",
	})
}

// exchangeGitHubCode trades an OAuth code for an access token.
func (s *Server) exchangeGitHubCode(ctx context.Context, code string) (string, error) {
	form := url.Values{}
	form.Set("client_id", s.cfg.GitHubClientID)
	form.Set("client_secret", s.cfg.GitHubClientSecret)
	form.Set("code", code)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, githubTokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to exchange OAuth code: %w", err)
	}
	defer resp.Body.Close()

	var body struct {
		AccessToken string `json:"access_token"`
		Error       string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("OAuth exchange rejected: %s", body.Error)
	}
	return body.AccessToken, nil
}

// fetchGitHubUsername resolves the authenticated GitHub login.
func fetchGitHubUsername(ctx context.Context, accessToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, githubUserURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build user request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/vnd.github+json")

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch GitHub user: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("GitHub user lookup returned %d", resp.StatusCode)
	}

	var body struct {
		Login string `json:"login"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode user response: %w", err)
	}
	if body.Login == "" {
		return "", fmt.Errorf("GitHub user response missing login")
	}
	return body.Login, nil
}
