package config

import "os"

type Features struct {
	BillingEnabled     bool
	DispatchEnabled    bool
	SignupEnabled      bool
	GoogleLoginEnabled bool
}

// LoadFeatures reads feature flags. Billing and signup default on; the
// dispatcher and Google login need external credentials and default off.
func LoadFeatures() Features {
	return Features{
		BillingEnabled:     flag("BILLING_ENABLED", true),
		DispatchEnabled:    flag("DISPATCH_ENABLED", false),
		SignupEnabled:      flag("SIGNUP_ENABLED", true),
		GoogleLoginEnabled: flag("GOOGLE_LOGIN_ENABLED", false),
	}
}

func flag(key string, fallback bool) bool {
	switch os.Getenv(key) {
	case "true":
		return true
	case "false":
		return false
	default:
		return fallback
	}
}
