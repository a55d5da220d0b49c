package handlers

import (
	"net/http"

	"github.com/DebasishBarai/remind-me/apperr"
	"github.com/DebasishBarai/remind-me/logging"
	"github.com/DebasishBarai/remind-me/middleware"
	"github.com/gin-gonic/gin"
)

// respondError writes {"error": message} with the status for err's kind.
// Messages of internal errors are replaced by fallback.
func respondError(c *gin.Context, err error, fallback string) {
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError {
		logging.FromContext(c.Request.Context()).Error().Err(err).
			Str("path", c.Request.URL.Path).Msg(fallback)
	}
	c.JSON(status, gin.H{"error": apperr.Message(err, fallback)})
}

// requireUser returns the caller's id or answers 401.
func requireUser(c *gin.Context) (string, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", false
	}
	return userID, true
}
