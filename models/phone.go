package models

import "strings"

const (
	minPhoneDigits = 8
	maxPhoneDigits = 15
)

// NormalizePhone reduces a phone number to E.164 form, "+15551234567".
// Spaces, dashes, dots and parentheses are dropped. Any other character, a
// leading zero country code or a digit count outside 8-15 is rejected.
func NormalizePhone(raw string) (string, bool) {
	s := strings.TrimPrefix(strings.TrimSpace(raw), "+")

	var b strings.Builder
	b.WriteByte('+')
	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
			digits++
		case r == ' ' || r == '-' || r == '.' || r == '(' || r == ')':
		default:
			return "", false
		}
	}
	phone := b.String()
	if digits < minPhoneDigits || digits > maxPhoneDigits || strings.HasPrefix(phone, "+0") {
		return "", false
	}
	return phone, true
}
