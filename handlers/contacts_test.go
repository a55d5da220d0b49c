package handlers

import (
	"net/http"
	"testing"

	"github.com/DebasishBarai/remind-me/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contactRouter(t *testing.T) (http.Handler, *models.User) {
	t.Helper()
	store := newTestStore(t)
	user := seedUser(t, store, "contacts@example.com")

	contacts := NewContactHandler(store)
	groups := NewGroupHandler(store)
	r := newRouter()
	r.GET("/api/contacts", contacts.List)
	r.POST("/api/contacts", contacts.Create)
	r.PUT("/api/contacts/:id", contacts.Update)
	r.DELETE("/api/contacts/:id", contacts.Delete)
	r.GET("/api/groups", groups.List)
	r.POST("/api/groups", groups.Create)
	r.DELETE("/api/groups/:id", groups.Delete)
	r.POST("/api/groups/:id/contacts", groups.AddContact)
	r.DELETE("/api/groups/:id/contacts/:contactId", groups.RemoveContact)
	return r, user
}

func TestContactLifecycle(t *testing.T) {
	r, user := contactRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/contacts", user.ID, map[string]string{"name": "Alice", "phone": "+15550001"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	alice := decode[models.Contact](t, rec)
	assert.Equal(t, user.ID, alice.UserID)

	rec = doJSON(t, r, http.MethodPost, "/api/contacts", user.ID, map[string]string{"name": "Alias", "phone": "+15550001"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Phone number already exists", decode[map[string]string](t, rec)["error"])

	rec = doJSON(t, r, http.MethodPost, "/api/contacts", user.ID, map[string]string{"name": " "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/api/contacts", user.ID, map[string]string{"name": "X", "phone": "not-a-phone"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid phone number", decode[map[string]string](t, rec)["error"])

	rec = doJSON(t, r, http.MethodPost, "/api/contacts", user.ID, map[string]string{"name": "Alias", "phone": "+1 555 0001"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Phone number already exists", decode[map[string]string](t, rec)["error"])

	rec = doJSON(t, r, http.MethodPut, "/api/contacts/"+alice.ID, user.ID, map[string]string{"name": "Alice B", "phone": "+15550002"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Alice B", decode[models.Contact](t, rec).Name)

	rec = doJSON(t, r, http.MethodGet, "/api/contacts", user.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]models.Contact](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "+15550002", list[0].Phone)

	rec = doJSON(t, r, http.MethodDelete, "/api/contacts/"+alice.ID, user.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, r, http.MethodDelete, "/api/contacts/"+alice.ID, user.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGroupMembership(t *testing.T) {
	r, user := contactRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/groups", user.ID, map[string]string{"name": "Team"})
	require.Equal(t, http.StatusCreated, rec.Code)
	group := decode[models.Group](t, rec)

	rec = doJSON(t, r, http.MethodPost, "/api/contacts", user.ID, map[string]string{"name": "Bob", "phone": "+15550003"})
	require.Equal(t, http.StatusCreated, rec.Code)
	bob := decode[models.Contact](t, rec)

	rec = doJSON(t, r, http.MethodPost, "/api/groups/"+group.ID+"/contacts", user.ID, map[string]string{"contactId": bob.ID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, decode[models.Group](t, rec).Contacts, 1)

	rec = doJSON(t, r, http.MethodPost, "/api/groups/"+group.ID+"/contacts", user.ID, map[string]string{"name": "Carol", "phone": "+15550004"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[models.Group](t, rec)
	require.Len(t, updated.Contacts, 2)
	assert.Equal(t, "Bob", updated.Contacts[0].Name)
	assert.Equal(t, "Carol", updated.Contacts[1].Name)

	rec = doJSON(t, r, http.MethodPost, "/api/groups/"+group.ID+"/contacts", user.ID, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, r, http.MethodDelete, "/api/groups/"+group.ID+"/contacts/"+bob.ID, user.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, r, http.MethodDelete, "/api/groups/"+group.ID+"/contacts/"+bob.ID, user.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Removing a member keeps the contact itself.
	rec = doJSON(t, r, http.MethodGet, "/api/contacts", user.ID, nil)
	assert.Len(t, decode[[]models.Contact](t, rec), 2)

	rec = doJSON(t, r, http.MethodGet, "/api/groups", user.ID, nil)
	groups := decode[[]models.Group](t, rec)
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Contacts, 1)

	rec = doJSON(t, r, http.MethodDelete, "/api/groups/"+group.ID, user.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, r, http.MethodGet, "/api/groups", user.ID, nil)
	assert.Empty(t, decode[[]models.Group](t, rec))
}

func TestGroupsAreScopedToOwner(t *testing.T) {
	r, user := contactRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/groups", user.ID, map[string]string{"name": "Private"})
	require.Equal(t, http.StatusCreated, rec.Code)
	group := decode[models.Group](t, rec)

	rec = doJSON(t, r, http.MethodPost, "/api/groups/"+group.ID+"/contacts", "intruder", map[string]string{"name": "Eve", "phone": "+15550009"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = doJSON(t, r, http.MethodDelete, "/api/groups/"+group.ID, "intruder", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
