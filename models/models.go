package models

import (
	"strings"
	"time"
)

type Tier string

const (
	TierFree    Tier = "free"
	TierBasic   Tier = "basic"
	TierPremium Tier = "premium"
)

// ParseTier accepts any casing and reports whether the value is a known tier.
func ParseTier(s string) (Tier, bool) {
	switch t := Tier(strings.ToLower(strings.TrimSpace(s))); t {
	case TierFree, TierBasic, TierPremium:
		return t, true
	}
	return "", false
}

// Paid reports whether the tier was bought through a capture.
func (t Tier) Paid() bool {
	return t == TierBasic || t == TierPremium
}

type User struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	PasswordHash     string     `json:"-"`
	Name             string     `json:"name"`
	SubscriptionTier Tier       `json:"subscription_tier"`
	SubscriptionEnd  *time.Time `json:"subscription_end"`
	EmailVerified    bool       `json:"email_verified"`
	CreatedAt        time.Time  `json:"created_at"`
}

// AccessProfile is the projection of a User the request gate needs.
type AccessProfile struct {
	ID        string
	Tier      Tier
	CreatedAt time.Time
}

type Frequency string

const (
	FrequencyOnce    Frequency = "once"
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

func ParseFrequency(s string) (Frequency, bool) {
	switch f := Frequency(strings.ToLower(strings.TrimSpace(s))); f {
	case FrequencyOnce, FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return f, true
	}
	return "", false
}

// Next returns the occurrence after t, or false for one-shot reminders.
func (f Frequency) Next(t time.Time) (time.Time, bool) {
	switch f {
	case FrequencyDaily:
		return t.AddDate(0, 0, 1), true
	case FrequencyWeekly:
		return t.AddDate(0, 0, 7), true
	case FrequencyMonthly:
		return t.AddDate(0, 1, 0), true
	default:
		return time.Time{}, false
	}
}

// Reminder is a scheduled message. Attempts counts failed deliveries since
// the last success; RetryAt holds a failing reminder back until then.
type Reminder struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	RemindAt  time.Time  `json:"dateTime"`
	Frequency Frequency  `json:"frequency"`
	Phone     *string    `json:"phone,omitempty"`
	GroupID   *string    `json:"groupId,omitempty"`
	Sent      bool       `json:"sent"`
	Attempts  int        `json:"attempts"`
	RetryAt   *time.Time `json:"retryAt,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

type Contact struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

type Group struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Contacts  []Contact `json:"contacts"`
	CreatedAt time.Time `json:"created_at"`
}
