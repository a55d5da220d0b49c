package handlers

import (
	"net/http"

	"github.com/DebasishBarai/remind-me/services"
	"github.com/gin-gonic/gin"
)

type ReminderHandler struct {
	reminders *services.ReminderService
}

func NewReminderHandler(reminders *services.ReminderService) *ReminderHandler {
	return &ReminderHandler{reminders: reminders}
}

func (h *ReminderHandler) Create(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var in services.ReminderInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	reminder, err := h.reminders.Create(c.Request.Context(), userID, in)
	if err != nil {
		respondError(c, err, "Failed to create reminder")
		return
	}
	c.JSON(http.StatusCreated, reminder)
}

func (h *ReminderHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	reminders, err := h.reminders.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Failed to fetch reminders")
		return
	}
	c.JSON(http.StatusOK, reminders)
}

func (h *ReminderHandler) Delete(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	if err := h.reminders.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, err, "Failed to delete reminder")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
