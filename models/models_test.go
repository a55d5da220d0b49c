package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseTier(t *testing.T) {
	tier, ok := ParseTier(" Premium ")
	assert.True(t, ok)
	assert.Equal(t, TierPremium, tier)
	assert.True(t, tier.Paid())

	_, ok = ParseTier("gold")
	assert.False(t, ok)
	assert.False(t, TierFree.Paid())
}

func TestFrequencyNext(t *testing.T) {
	base := time.Date(2024, time.January, 31, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		freq Frequency
		want time.Time
		ok   bool
	}{
		{FrequencyOnce, time.Time{}, false},
		{FrequencyDaily, base.AddDate(0, 0, 1), true},
		{FrequencyWeekly, time.Date(2024, time.February, 7, 9, 0, 0, 0, time.UTC), true},
		// AddDate normalises Feb 31 to Mar 2 in a leap year
		{FrequencyMonthly, time.Date(2024, time.March, 2, 9, 0, 0, 0, time.UTC), true},
	}
	for _, tt := range tests {
		t.Run(string(tt.freq), func(t *testing.T) {
			got, ok := tt.freq.Next(base)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFrequency(t *testing.T) {
	f, ok := ParseFrequency("WEEKLY")
	assert.True(t, ok)
	assert.Equal(t, FrequencyWeekly, f)

	_, ok = ParseFrequency("hourly")
	assert.False(t, ok)
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"+15551234567", "+15551234567", true},
		{" +1 (555) 123-4567 ", "+15551234567", true},
		{"44.7700.900123", "+447700900123", true},
		{"not-a-phone", "", false},
		{"", "", false},
		{"+1", "", false},
		{"+1234567890123456", "", false},
		{"+0123456789", "", false},
		{"++15551234567", "", false},
		{"+1555123456x7", "", false},
	}
	for _, tc := range tests {
		got, ok := NormalizePhone(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}
