package utils

import "strings"

// NormalizePhone strips formatting from a phone number and returns it as
// "+<digits>". Nine-digit local Uzbek numbers get the 998 country code.
// It returns "" when the input has no digits or an implausible length.
//
//	utils.NormalizePhone("+998 (90) 123-45-67") // "+998901234567"
//	utils.NormalizePhone("90 123 45 67")        // "+998901234567"
func NormalizePhone(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) == 9 {
		digits = "998" + digits
	}
	if len(digits) < 10 || len(digits) > 15 {
		return ""
	}
	return "+" + digits
}
