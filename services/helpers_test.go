package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/DebasishBarai/remind-me/db"
	"github.com/DebasishBarai/remind-me/models"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *db.Store {
	t.Helper()
	store, err := db.Open("", filepath.Join(t.TempDir(), "services.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func seedUser(t *testing.T, store *db.Store, email string) *models.User {
	t.Helper()
	u := &models.User{Email: email, Name: "Seed"}
	require.NoError(t, store.CreateUser(context.Background(), u))
	return u
}

func ptr(s string) *string { return &s }
