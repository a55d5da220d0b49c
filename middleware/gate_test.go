package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DebasishBarai/remind-me/apperr"
	"github.com/DebasishBarai/remind-me/models"
	"github.com/DebasishBarai/remind-me/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProfiles struct {
	profiles map[string]*models.AccessProfile
	err      error
}

func (f *fakeProfiles) GetAccessProfile(_ context.Context, id string) (*models.AccessProfile, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.profiles[id]
	if !ok {
		return nil, apperr.NotFound("test", "User not found")
	}
	return p, nil
}

var gateNow = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

func newGateRouter(t *testing.T, profiles *fakeProfiles) (*gin.Engine, *services.SessionManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	sessions := services.NewSessionManager("secret", time.Hour)
	gate := NewGate(sessions, profiles, services.NewAccessPolicy(services.DefaultTrialPeriod))
	gate.now = func() time.Time { return gateNow }

	r := gin.New()
	r.Use(RequestLogger(), gate.Handler())
	ok := func(c *gin.Context) {
		id, _ := UserID(c)
		c.JSON(http.StatusOK, gin.H{"user_id": id, "email": UserEmail(c)})
	}
	for _, path := range []string{"/", "/pricing", "/dashboard", "/contacts", "/api/reminders", "/api/contacts", "/api/auth/login"} {
		r.GET(path, ok)
	}
	return r, sessions
}

func doRequest(r http.Handler, path, token string, cookie bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		if cookie {
			req.AddCookie(&http.Cookie{Name: services.SessionCookie, Value: token})
		} else {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGateAnonymous(t *testing.T) {
	r, _ := newGateRouter(t, &fakeProfiles{})

	w := doRequest(r, "/", "", false)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(r, "/dashboard", "", false)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	w = doRequest(r, "/api/contacts", "garbage-token", false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Unauthorized", body["error"])
	assert.Equal(t, "/login", body["redirect"])
}

func TestGateTrialExpired(t *testing.T) {
	profiles := &fakeProfiles{profiles: map[string]*models.AccessProfile{
		"old":  {ID: "old", Tier: models.TierFree, CreatedAt: gateNow.AddDate(0, 0, -30)},
		"new":  {ID: "new", Tier: models.TierFree, CreatedAt: gateNow.AddDate(0, 0, -1)},
		"paid": {ID: "paid", Tier: models.TierBasic, CreatedAt: gateNow.AddDate(-1, 0, 0)},
	}}
	r, sessions := newGateRouter(t, profiles)
	token := func(id string) string {
		tok, err := sessions.Issue(id, id+"@example.com")
		require.NoError(t, err)
		return tok
	}

	w := doRequest(r, "/dashboard", token("old"), true)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/pricing", w.Header().Get("Location"))

	w = doRequest(r, "/api/reminders", token("old"), false)
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Contains(t, w.Body.String(), `"redirect":"/pricing"`)

	// unprotected pages stay reachable after the trial
	w = doRequest(r, "/contacts", token("old"), false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":"old"`)
	assert.Contains(t, w.Body.String(), `"email":"old@example.com"`)

	for _, id := range []string{"new", "paid"} {
		w = doRequest(r, "/api/reminders", token(id), false)
		assert.Equal(t, http.StatusOK, w.Code, id)
	}
}

func TestGateUnknownUserIsAnonymous(t *testing.T) {
	r, sessions := newGateRouter(t, &fakeProfiles{})
	tok, err := sessions.Issue("deleted", "gone@example.com")
	require.NoError(t, err)

	w := doRequest(r, "/dashboard", tok, false)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestGateStoreFailure(t *testing.T) {
	r, sessions := newGateRouter(t, &fakeProfiles{err: errors.New("connection refused")})
	tok, err := sessions.Issue("u", "u@example.com")
	require.NoError(t, err)

	w := doRequest(r, "/dashboard", tok, false)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestRequestLoggerSetsRequestID(t *testing.T) {
	r, _ := newGateRouter(t, &fakeProfiles{})

	w := doRequest(r, "/", "", false)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}
