package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClaims struct{ userID uuid.UUID }

func (c *fakeClaims) GetUserID() uuid.UUID { return c.userID }

type fakeValidator struct {
	userID uuid.UUID
	err    error
}

func (v *fakeValidator) ValidateToken(string) (UserIDGetter, error) {
	if v.err != nil {
		return nil, v.err
	}
	return &fakeClaims{userID: v.userID}, nil
}

func protectedHandler(t *testing.T, wantUser uuid.UUID) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := GetUserID(r)
		require.NoError(t, err)
		assert.Equal(t, wantUser, userID)
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestRequireAuthValidToken(t *testing.T) {
	userID := uuid.New()
	handler := RequireAuth(&fakeValidator{userID: userID})(protectedHandler(t, userID))

	req := httptest.NewRequest("GET", "/v1/logs", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequireAuthRejects(t *testing.T) {
	cases := []struct {
		name      string
		header    string
		validator *fakeValidator
	}{
		{"missing header", "", &fakeValidator{}},
		{"not bearer", "Basic abc", &fakeValidator{}},
		{"empty token", "Bearer ", &fakeValidator{}},
		{"invalid token", "Bearer bad", &fakeValidator{err: fmt.Errorf("expired")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := RequireAuth(tc.validator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler must not run")
			}))
			req := httptest.NewRequest("GET", "/v1/logs", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestGetUserIDMissing(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	_, err := GetUserID(req)
	assert.Error(t, err)
}
