package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/DebasishBarai/remind-me/apperr"
	"github.com/DebasishBarai/remind-me/config"
	"github.com/DebasishBarai/remind-me/db"
	"github.com/DebasishBarai/remind-me/models"
	"github.com/DebasishBarai/remind-me/services"
	"github.com/gin-gonic/gin"
)

type UserReader interface {
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	StatsOverview(ctx context.Context, userID string) (*db.Overview, error)
}

type AuthHandler struct {
	identity     *services.IdentityService
	sessions     *services.SessionManager
	users        UserReader
	policy       services.AccessPolicy
	features     config.Features
	secureCookie bool
	now          func() time.Time
}

func NewAuthHandler(identity *services.IdentityService, sessions *services.SessionManager, users UserReader, policy services.AccessPolicy, features config.Features, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		identity:     identity,
		sessions:     sessions,
		users:        users,
		policy:       policy,
		features:     features,
		secureCookie: secureCookie,
		now:          time.Now,
	}
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RegisterInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	if !h.features.SignupEnabled {
		c.JSON(http.StatusNotFound, gin.H{"error": "Signup not enabled"})
		return
	}
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A valid email and a password of at least 8 characters are required"})
		return
	}

	user, err := h.identity.Register(c.Request.Context(), input.Email, input.Password, input.Name)
	if err != nil {
		respondError(c, err, "Failed to create account")
		return
	}
	token, ok := h.startSession(c, user.ID, user.Email)
	if !ok {
		return
	}
	c.JSON(http.StatusCreated, gin.H{"token": token, "user": user, "redirect": "/dashboard"})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}

	userID, err := h.identity.VerifyCredentials(c.Request.Context(), input.Email, input.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err != nil {
		respondError(c, err, "Login failed")
		return
	}
	token, ok := h.startSession(c, userID, db.NormalizeEmail(input.Email))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "redirect": "/dashboard"})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(services.SessionCookie, "", -1, "/", "", h.secureCookie, true)
	c.JSON(http.StatusOK, gin.H{"redirect": "/"})
}

// Me returns the caller's profile, trial status and usage counts.
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	user, err := h.users.FindUserByID(ctx, userID)
	if err != nil {
		respondError(c, err, "Failed to load profile")
		return
	}
	stats, err := h.users.StatsOverview(ctx, userID)
	if err != nil {
		respondError(c, err, "Failed to load profile")
		return
	}

	trialEnd := h.policy.TrialEnd(user.CreatedAt)
	now := h.now()
	trial := gin.H{
		"ends_at": trialEnd,
		"expired": user.SubscriptionTier == models.TierFree && h.policy.TrialExpired(user.CreatedAt, now),
	}
	if user.SubscriptionTier == models.TierFree && now.Before(trialEnd) {
		trial["days_left"] = int(trialEnd.Sub(now).Hours()/24) + 1
	}

	c.JSON(http.StatusOK, gin.H{
		"user":  user,
		"trial": trial,
		"stats": stats,
	})
}

func (h *AuthHandler) startSession(c *gin.Context, userID, email string) (string, bool) {
	token, err := issueSession(c, h.sessions, userID, email, h.secureCookie)
	if err != nil {
		respondError(c, err, "Failed to start session")
		return "", false
	}
	return token, true
}

func issueSession(c *gin.Context, sessions *services.SessionManager, userID, email string, secure bool) (string, error) {
	token, err := sessions.Issue(userID, email)
	if err != nil {
		return "", apperr.Wrap(apperr.ErrInternal, "auth.session", "", err)
	}
	setSessionCookie(c, token, sessions.TTL(), secure)
	return token, nil
}

func setSessionCookie(c *gin.Context, token string, ttl time.Duration, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(services.SessionCookie, token, int(ttl.Seconds()), "/", "", secure, true)
}
