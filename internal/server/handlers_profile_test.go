package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/workjournal/internal/db"
)

func TestGetProfile(t *testing.T) {
	ts := newTestServer(t)
	user := ts.store.addProfile("dev@example.com")

	rec := httptest.NewRecorder()
	ts.handleGetProfile(rec, authedRequest(http.MethodGet, "/v1/profile", "", user.ID))
	require.Equal(t, http.StatusOK, rec.Code)

	var profile db.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
	assert.Equal(t, "dev@example.com", profile.Email)
	assert.NotContains(t, rec.Body.String(), "password_hash", "credentials never serialize")
}

func TestGetProfileUnknownUser(t *testing.T) {
	ts := newTestServer(t)

	rec := httptest.NewRecorder()
	ts.handleGetProfile(rec, authedRequest(http.MethodGet, "/v1/profile", "", uuid.New()))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateProfilePartial(t *testing.T) {
	ts := newTestServer(t)
	user := ts.store.addProfile("dev@example.com")
	headline := "Staff Engineer"
	user.Headline = &headline

	rec := httptest.NewRecorder()
	ts.handleUpdateProfile(rec, authedRequest(http.MethodPatch, "/v1/profile",
		`{"full_name":"Jordan Diaz","skills":["go","postgres"]}`, user.ID))
	require.Equal(t, http.StatusOK, rec.Code)

	var updated db.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	require.NotNil(t, updated.FullName)
	assert.Equal(t, "Jordan Diaz", *updated.FullName)
	assert.Equal(t, []string{"go", "postgres"}, updated.Skills)
	require.NotNil(t, updated.Headline)
	assert.Equal(t, "Staff Engineer", *updated.Headline, "absent fields stay put")
}

func TestUpdateProfileBadBody(t *testing.T) {
	ts := newTestServer(t)
	user := ts.store.addProfile("dev@example.com")

	rec := httptest.NewRecorder()
	ts.handleUpdateProfile(rec, authedRequest(http.MethodPatch, "/v1/profile", `{"skills":`, user.ID))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
