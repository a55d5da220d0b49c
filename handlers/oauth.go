package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/DebasishBarai/remind-me/logging"
	"github.com/DebasishBarai/remind-me/services"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	googleIssuer   = "https://accounts.google.com"
	googleJWKSURL  = "https://www.googleapis.com/oauth2/v3/certs"
	oauthStateName = "remindme_oauth_state"
)

// assertionResolver turns an authorization code into a verified identity.
type assertionResolver func(ctx context.Context, code string) (services.FederatedAssertion, error)

// OAuthHandler runs the Google sign-in flow: redirect to consent, exchange
// the code, verify the ID token and start a session.
type OAuthHandler struct {
	oauth        *oauth2.Config
	resolve      assertionResolver
	identity     *services.IdentityService
	sessions     *services.SessionManager
	secureCookie bool
}

func NewGoogleOAuthHandler(ctx context.Context, clientID, clientSecret, redirectURL string, identity *services.IdentityService, sessions *services.SessionManager, secureCookie bool) *OAuthHandler {
	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
		Endpoint:     google.Endpoint,
	}
	keySet := oidc.NewRemoteKeySet(ctx, googleJWKSURL)
	verifier := oidc.NewVerifier(googleIssuer, keySet, &oidc.Config{ClientID: clientID})

	return &OAuthHandler{
		oauth:        conf,
		resolve:      googleResolver(conf, verifier),
		identity:     identity,
		sessions:     sessions,
		secureCookie: secureCookie,
	}
}

func googleResolver(conf *oauth2.Config, verifier *oidc.IDTokenVerifier) assertionResolver {
	return func(ctx context.Context, code string) (services.FederatedAssertion, error) {
		token, err := conf.Exchange(ctx, code)
		if err != nil {
			return services.FederatedAssertion{}, fmt.Errorf("exchange code: %w", err)
		}
		rawIDToken, ok := token.Extra("id_token").(string)
		if !ok {
			return services.FederatedAssertion{}, errors.New("token response has no id_token")
		}
		idToken, err := verifier.Verify(ctx, rawIDToken)
		if err != nil {
			return services.FederatedAssertion{}, fmt.Errorf("verify id token: %w", err)
		}

		var claims struct {
			Email         string `json:"email"`
			EmailVerified bool   `json:"email_verified"`
			Name          string `json:"name"`
		}
		if err := idToken.Claims(&claims); err != nil {
			return services.FederatedAssertion{}, fmt.Errorf("decode claims: %w", err)
		}
		if !claims.EmailVerified {
			return services.FederatedAssertion{}, errors.New("google account email is not verified")
		}
		return services.FederatedAssertion{Email: claims.Email, Name: claims.Name, Subject: idToken.Subject}, nil
	}
}

func (h *OAuthHandler) Login(c *gin.Context) {
	state := uuid.NewString()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateName, state, 600, "/auth/google", "", h.secureCookie, true)
	c.Redirect(http.StatusTemporaryRedirect, h.oauth.AuthCodeURL(state))
}

func (h *OAuthHandler) Callback(c *gin.Context) {
	log := logging.FromContext(c.Request.Context())

	expected, err := c.Cookie(oauthStateName)
	if err != nil || expected == "" || c.Query("state") != expected {
		c.Redirect(http.StatusFound, "/login?error=state")
		return
	}
	c.SetCookie(oauthStateName, "", -1, "/auth/google", "", h.secureCookie, true)

	code := c.Query("code")
	if code == "" {
		c.Redirect(http.StatusFound, "/login?error=denied")
		return
	}

	assertion, err := h.resolve(c.Request.Context(), code)
	if err != nil {
		log.Warn().Err(err).Msg("Google sign-in rejected")
		c.Redirect(http.StatusFound, "/login?error=google")
		return
	}

	user, err := h.identity.FederatedLogin(c.Request.Context(), assertion)
	if err != nil {
		log.Error().Err(err).Msg("Federated login failed")
		c.Redirect(http.StatusFound, "/login?error=google")
		return
	}
	if _, err := issueSession(c, h.sessions, user.ID, user.Email, h.secureCookie); err != nil {
		log.Error().Err(err).Msg("Issue session failed")
		c.Redirect(http.StatusFound, "/login?error=session")
		return
	}
	c.Redirect(http.StatusFound, "/dashboard")
}
