package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/DebasishBarai/remind-me/models"
	"github.com/gin-gonic/gin"
)

type GroupStore interface {
	ListGroups(ctx context.Context, userID string) ([]models.Group, error)
	GetGroup(ctx context.Context, userID, id string) (*models.Group, error)
	CreateGroup(ctx context.Context, g *models.Group) error
	DeleteGroup(ctx context.Context, userID, id string) error
	AddGroupContact(ctx context.Context, userID, groupID, contactID string) error
	AddNewGroupContact(ctx context.Context, userID, groupID string, c *models.Contact) error
	RemoveGroupContact(ctx context.Context, userID, groupID, contactID string) error
}

type GroupHandler struct {
	store GroupStore
}

func NewGroupHandler(store GroupStore) *GroupHandler {
	return &GroupHandler{store: store}
}

func (h *GroupHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	groups, err := h.store.ListGroups(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Failed to fetch groups")
		return
	}
	c.JSON(http.StatusOK, groups)
}

func (h *GroupHandler) Create(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" || len(name) > 255 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name is required and must be under 255 chars"})
		return
	}

	group := &models.Group{UserID: userID, Name: name}
	if err := h.store.CreateGroup(c.Request.Context(), group); err != nil {
		respondError(c, err, "Failed to create group")
		return
	}
	c.JSON(http.StatusCreated, group)
}

func (h *GroupHandler) Delete(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	if err := h.store.DeleteGroup(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, err, "Failed to delete group")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// AddContact adds an existing contact ({contactId}) or creates one
// ({name, phone}) inside the group. It responds with the updated group.
func (h *GroupHandler) AddContact(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req struct {
		ContactID string `json:"contactId"`
		Name      string `json:"name"`
		Phone     string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	ctx := c.Request.Context()
	groupID := c.Param("id")
	var err error
	if contactID := strings.TrimSpace(req.ContactID); contactID != "" {
		err = h.store.AddGroupContact(ctx, userID, groupID, contactID)
	} else {
		name, phone, valid := contactRequest{Name: req.Name, Phone: req.Phone}.clean()
		if !valid {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Provide contactId, or name and phone"})
			return
		}
		err = h.store.AddNewGroupContact(ctx, userID, groupID, &models.Contact{Name: name, Phone: phone})
	}
	if err != nil {
		respondError(c, err, "Failed to add contact")
		return
	}

	group, err := h.store.GetGroup(ctx, userID, groupID)
	if err != nil {
		respondError(c, err, "Failed to load group")
		return
	}
	c.JSON(http.StatusOK, group)
}

func (h *GroupHandler) RemoveContact(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	if err := h.store.RemoveGroupContact(c.Request.Context(), userID, c.Param("id"), c.Param("contactId")); err != nil {
		respondError(c, err, "Failed to remove contact")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
