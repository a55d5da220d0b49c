package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/DebasishBarai/remind-me/apperr"
	"github.com/DebasishBarai/remind-me/logging"
	"github.com/DebasishBarai/remind-me/metrics"
	"github.com/DebasishBarai/remind-me/models"
	"github.com/DebasishBarai/remind-me/services"
	"github.com/gin-gonic/gin"
)

type ProfileStore interface {
	GetAccessProfile(ctx context.Context, userID string) (*models.AccessProfile, error)
}

type SessionParser interface {
	Parse(token string) (*services.SessionClaims, error)
}

// Gate resolves the session on every request and asks the access policy
// whether to let it through. It never writes user state.
type Gate struct {
	sessions SessionParser
	profiles ProfileStore
	policy   services.AccessPolicy
	now      func() time.Time
}

func NewGate(sessions SessionParser, profiles ProfileStore, policy services.AccessPolicy) *Gate {
	return &Gate{sessions: sessions, profiles: profiles, policy: policy, now: time.Now}
}

func (g *Gate) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		log := logging.FromContext(c.Request.Context())

		var (
			subject *services.Subject
			claims  *services.SessionClaims
		)
		// an unreadable token is treated as no session
		if token := services.TokenFromRequest(c.Request); token != "" {
			claims, _ = g.sessions.Parse(token)
		}
		if claims != nil {
			profile, err := g.profiles.GetAccessProfile(c.Request.Context(), claims.UserID)
			switch {
			case err == nil:
				subject = &services.Subject{Tier: profile.Tier, CreatedAt: profile.CreatedAt}
			case errors.Is(err, apperr.ErrNotFound):
				claims = nil
			default:
				metrics.GateVerdicts.WithLabelValues("error").Inc()
				log.Error().Err(err).Str("path", path).Msg("Load access profile failed")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
				return
			}
		}

		verdict := g.policy.Evaluate(subject, g.now(), path)
		if verdict.Allow {
			metrics.GateVerdicts.WithLabelValues("allow").Inc()
			if claims != nil {
				c.Set("userID", claims.UserID)
				c.Set("userEmail", claims.Email)
			}
			c.Next()
			return
		}

		metrics.GateVerdicts.WithLabelValues(strings.TrimPrefix(verdict.Redirect, "/")).Inc()
		if isAPIPath(path) {
			status, msg := http.StatusUnauthorized, "Unauthorized"
			if verdict.Redirect == services.PricingPath {
				status, msg = http.StatusPaymentRequired, "Trial expired"
			}
			c.AbortWithStatusJSON(status, gin.H{"error": msg, "redirect": verdict.Redirect})
			return
		}
		c.Redirect(http.StatusFound, verdict.Redirect)
		c.Abort()
	}
}

func isAPIPath(path string) bool {
	return path == "/api" || strings.HasPrefix(path, "/api/")
}

// UserID returns the id the gate stored for an authenticated request.
func UserID(c *gin.Context) (string, bool) {
	v, ok := c.Get("userID")
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

func UserEmail(c *gin.Context) string {
	return c.GetString("userEmail")
}
