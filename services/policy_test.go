package services

import (
	"testing"
	"time"

	"github.com/DebasishBarai/remind-me/models"
	"github.com/stretchr/testify/assert"
)

func TestEvaluateGrid(t *testing.T) {
	policy := NewAccessPolicy(DefaultTrialPeriod)
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	trialEnd := created.Add(DefaultTrialPeriod)

	times := map[string]time.Time{
		"at creation":    created,
		"mid trial":      created.Add(3 * 24 * time.Hour),
		"exactly at end": trialEnd,
		"just after end": trialEnd.Add(time.Nanosecond),
		"a year later":   created.AddDate(1, 0, 0),
	}
	public := []string{"/", "/pricing", "/login", "/privacy", "/privacy-policy", "/terms", "/terms-of-use", "/contact", "/static/app.js", "/api/auth/login", "/auth/google/callback", "/healthz"}
	protected := []string{"/create", "/reminders", "/dashboard", "/api/reminders", "/api/reminders/abc", "/reminders/new"}
	other := []string{"/contacts", "/groups", "/api/contacts", "/api/payment", "/createx", "/api/me", "/healthzanything", "/metrics"}

	for name, now := range times {
		expired := now.After(trialEnd)

		for _, tier := range []models.Tier{models.TierFree, models.TierBasic, models.TierPremium} {
			subject := &Subject{Tier: tier, CreatedAt: created}

			for _, path := range public {
				assert.Equal(t, allow, policy.Evaluate(subject, now, path), "%s %s %s", name, tier, path)
			}
			for _, path := range protected {
				want := allow
				if tier == models.TierFree && expired {
					want = deny(PricingPath)
				}
				assert.Equal(t, want, policy.Evaluate(subject, now, path), "%s %s %s", name, tier, path)
			}
			for _, path := range other {
				assert.Equal(t, allow, policy.Evaluate(subject, now, path), "%s %s %s", name, tier, path)
			}
		}

		for _, path := range public {
			assert.Equal(t, allow, policy.Evaluate(nil, now, path), "anonymous %s", path)
		}
		for _, path := range append(protected, other...) {
			assert.Equal(t, deny(LoginPath), policy.Evaluate(nil, now, path), "anonymous %s", path)
		}
	}
}

func TestEvaluateConfiguredTrial(t *testing.T) {
	policy := NewAccessPolicy(time.Hour)
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	subject := &Subject{Tier: models.TierFree, CreatedAt: created}

	assert.True(t, policy.Evaluate(subject, created.Add(59*time.Minute), "/dashboard").Allow)
	assert.Equal(t, deny(PricingPath), policy.Evaluate(subject, created.Add(2*time.Hour), "/dashboard"))
}

func TestIsProtectedPath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/create", true},
		{"/create/", true},
		{"/api/reminders", true},
		{"/api/reminders/123", true},
		{"/creative", false},
		{"/api/remindersx", false},
		{"/", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, IsProtectedPath(tt.path))
		})
	}
}
