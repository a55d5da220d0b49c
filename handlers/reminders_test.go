package handlers

import (
	"net/http"
	"testing"

	"github.com/DebasishBarai/remind-me/models"
	"github.com/DebasishBarai/remind-me/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reminderRouter(t *testing.T) (http.Handler, *models.User) {
	t.Helper()
	store := newTestStore(t)
	user := seedUser(t, store, "rem@example.com")

	h := NewReminderHandler(services.NewReminderService(store))
	groups := NewGroupHandler(store)
	r := newRouter()
	r.POST("/api/reminders", h.Create)
	r.GET("/api/reminders", h.List)
	r.DELETE("/api/reminders/:id", h.Delete)
	r.POST("/api/groups", groups.Create)
	return r, user
}

func TestReminderCreateAndList(t *testing.T) {
	r, user := reminderRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/reminders", user.ID, map[string]string{
		"title":     "Standup",
		"message":   "Daily sync",
		"dateTime":  "2030-05-01T09:30",
		"frequency": "daily",
		"phone":     "+15551234567",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[models.Reminder](t, rec)
	assert.Equal(t, "Standup", created.Title)
	assert.Equal(t, models.FrequencyDaily, created.Frequency)
	require.NotNil(t, created.Phone)
	assert.Equal(t, "+15551234567", *created.Phone)
	assert.Nil(t, created.GroupID)

	rec = doJSON(t, r, http.MethodGet, "/api/reminders", user.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]models.Reminder](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
	assert.True(t, list[0].RemindAt.Equal(created.RemindAt))
}

func TestReminderCreateValidation(t *testing.T) {
	r, user := reminderRouter(t)

	cases := []struct {
		name string
		body map[string]string
		want string
	}{
		{"missing target", map[string]string{"title": "t", "message": "m", "dateTime": "2030-05-01T09:30", "frequency": "once"}, "Either phone or groupId is required"},
		{"missing title", map[string]string{"message": "m", "dateTime": "2030-05-01T09:30", "frequency": "once", "phone": "1"}, "Missing required fields"},
		{"bad frequency", map[string]string{"title": "t", "message": "m", "dateTime": "2030-05-01T09:30", "frequency": "hourly", "phone": "+15551234567"}, "Invalid frequency. Must be once, daily, weekly or monthly"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, r, http.MethodPost, "/api/reminders", user.ID, tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tc.want, decode[map[string]string](t, rec)["error"])
		})
	}
}

func TestReminderEmptyGroupRejected(t *testing.T) {
	r, user := reminderRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/groups", user.ID, map[string]string{"name": "Family"})
	require.Equal(t, http.StatusCreated, rec.Code)
	group := decode[models.Group](t, rec)

	rec = doJSON(t, r, http.MethodPost, "/api/reminders", user.ID, map[string]string{
		"title": "t", "message": "m", "dateTime": "2030-05-01T09:30", "frequency": "once", "groupId": group.ID,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Group has no contacts", decode[map[string]string](t, rec)["error"])

	rec = doJSON(t, r, http.MethodPost, "/api/reminders", user.ID, map[string]string{
		"title": "t", "message": "m", "dateTime": "2030-05-01T09:30", "frequency": "once", "groupId": "missing",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReminderDelete(t *testing.T) {
	r, user := reminderRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/reminders", user.ID, map[string]string{
		"title": "t", "message": "m", "dateTime": "2030-05-01T09:30", "frequency": "once", "phone": "+15551234567",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[models.Reminder](t, rec).ID

	rec = doJSON(t, r, http.MethodDelete, "/api/reminders/"+id, "someone-else", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, r, http.MethodDelete, "/api/reminders/"+id, user.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode[map[string]any](t, rec)["success"])

	rec = doJSON(t, r, http.MethodDelete, "/api/reminders/"+id, user.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReminderRequiresUser(t *testing.T) {
	r, _ := reminderRouter(t)
	rec := doJSON(t, r, http.MethodGet, "/api/reminders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
