package services

import (
	"strings"
	"time"

	"github.com/DebasishBarai/remind-me/models"
)

const (
	LoginPath   = "/login"
	PricingPath = "/pricing"

	DefaultTrialPeriod = 7 * 24 * time.Hour
)

var (
	publicPaths = map[string]bool{
		"/":               true,
		"/pricing":        true,
		"/login":          true,
		"/privacy":        true,
		"/privacy-policy": true,
		"/terms":          true,
		"/terms-of-use":   true,
		"/contact":        true,
		"/healthz":        true,
	}
	publicPrefixes = []string{"/static/", "/api/auth/", "/auth/"}

	protectedPaths = []string{"/create", "/reminders", "/dashboard", "/api/reminders"}
)

// Subject is the caller as far as the access policy is concerned. A nil
// Subject is an anonymous request.
type Subject struct {
	Tier      models.Tier
	CreatedAt time.Time
}

type Verdict struct {
	Allow    bool
	Redirect string
}

var allow = Verdict{Allow: true}

func deny(target string) Verdict { return Verdict{Redirect: target} }

// AccessPolicy decides whether a request may proceed. It does no I/O.
type AccessPolicy struct {
	Trial time.Duration
}

func NewAccessPolicy(trial time.Duration) AccessPolicy {
	return AccessPolicy{Trial: trial}
}

func (p AccessPolicy) Evaluate(subject *Subject, now time.Time, path string) Verdict {
	if IsPublicPath(path) {
		return allow
	}
	if subject == nil {
		return deny(LoginPath)
	}
	if subject.Tier != models.TierFree {
		return allow
	}
	if p.TrialExpired(subject.CreatedAt, now) && IsProtectedPath(path) {
		return deny(PricingPath)
	}
	return allow
}

// TrialEnd is the instant after which a free account is restricted.
func (p AccessPolicy) TrialEnd(createdAt time.Time) time.Time {
	return createdAt.Add(p.Trial)
}

func (p AccessPolicy) TrialExpired(createdAt, now time.Time) bool {
	return now.After(p.TrialEnd(createdAt))
}

func IsPublicPath(path string) bool {
	if publicPaths[path] {
		return true
	}
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func IsProtectedPath(path string) bool {
	for _, p := range protectedPaths {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}
