package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/DebasishBarai/remind-me/db"
	"github.com/DebasishBarai/remind-me/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const testUserHeader = "X-Test-User"

func newTestStore(t *testing.T) *db.Store {
	t.Helper()
	store, err := db.Open("", filepath.Join(t.TempDir(), "handlers.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func seedUser(t *testing.T, store *db.Store, email string) *models.User {
	t.Helper()
	u := &models.User{Email: email, Name: "Test User"}
	require.NoError(t, store.CreateUser(context.Background(), u))
	return u
}

// newRouter stands in for the gate: the caller id comes from a header.
func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if id := c.GetHeader(testUserHeader); id != "" {
			c.Set("userID", id)
		}
		c.Next()
	})
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set(testUserHeader, userID)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}
