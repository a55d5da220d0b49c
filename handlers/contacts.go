package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/DebasishBarai/remind-me/models"
	"github.com/gin-gonic/gin"
)

type ContactStore interface {
	ListContacts(ctx context.Context, userID string) ([]models.Contact, error)
	CreateContact(ctx context.Context, c *models.Contact) error
	UpdateContact(ctx context.Context, userID, id, name, phone string) (*models.Contact, error)
	DeleteContact(ctx context.Context, userID, id string) error
}

type ContactHandler struct {
	store ContactStore
}

func NewContactHandler(store ContactStore) *ContactHandler {
	return &ContactHandler{store: store}
}

type contactRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

func (r contactRequest) clean() (name, phone string, ok bool) {
	name = strings.TrimSpace(r.Name)
	phone = strings.TrimSpace(r.Phone)
	return name, phone, name != "" && phone != "" && len(name) <= 255
}

func (h *ContactHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	contacts, err := h.store.ListContacts(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Failed to fetch contacts")
		return
	}
	c.JSON(http.StatusOK, contacts)
}

func (h *ContactHandler) Create(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	name, phone, valid := req.clean()
	if !valid {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name and phone are required"})
		return
	}

	contact := &models.Contact{UserID: userID, Name: name, Phone: phone}
	if err := h.store.CreateContact(c.Request.Context(), contact); err != nil {
		respondError(c, err, "Failed to create contact")
		return
	}
	c.JSON(http.StatusCreated, contact)
}

func (h *ContactHandler) Update(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	name, phone, valid := req.clean()
	if !valid {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name and phone are required"})
		return
	}

	contact, err := h.store.UpdateContact(c.Request.Context(), userID, c.Param("id"), name, phone)
	if err != nil {
		respondError(c, err, "Failed to update contact")
		return
	}
	c.JSON(http.StatusOK, contact)
}

func (h *ContactHandler) Delete(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	if err := h.store.DeleteContact(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, err, "Failed to delete contact")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
