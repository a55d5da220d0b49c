package services

import (
	"strings"

	"github.com/DebasishBarai/remind-me/apperr"
	"github.com/DebasishBarai/remind-me/models"
)

var ErrInvalidPlan = apperr.InvalidInput("billing.plan", "Invalid plan selected")

// ParsePlan returns the paid tier a checkout plan name refers to.
func ParsePlan(plan string) (models.Tier, error) {
	switch tier := models.Tier(strings.ToLower(strings.TrimSpace(plan))); tier {
	case models.TierBasic, models.TierPremium:
		return tier, nil
	}
	return "", ErrInvalidPlan
}

func IsValidPlan(plan string) bool {
	_, err := ParsePlan(plan)
	return err == nil
}

// PlanDescription is the order description shown by the processor.
func PlanDescription(tier models.Tier) string {
	if tier == "" {
		return "RemindMe Plan"
	}
	return "RemindMe " + planName(tier) + " Plan"
}
