package whatsapp

import (
	"regexp"
	"strings"
)

var phonePattern = regexp.MustCompile(`^\+\d{10,15}$`)

// NormalizePhone strips formatting and applies the Indian defaults: a bare
// 10-digit number gets +91 and a 12-digit number starting with 91 gets +.
// ok is false when the result is not a valid international number.
func NormalizePhone(raw string) (string, bool) {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '+' {
			b.WriteRune(r)
		}
	}
	phone := b.String()
	switch {
	case len(phone) == 10 && !strings.HasPrefix(phone, "+"):
		phone = "+91" + phone
	case len(phone) == 12 && strings.HasPrefix(phone, "91"):
		phone = "+" + phone
	}
	return phone, phonePattern.MatchString(phone)
}

func CountryCode(phone string) string {
	switch {
	case strings.HasPrefix(phone, "+91"):
		return "IN"
	case strings.HasPrefix(phone, "+44"):
		return "GB"
	case strings.HasPrefix(phone, "+1"):
		return "US"
	default:
		return "Unknown"
	}
}
