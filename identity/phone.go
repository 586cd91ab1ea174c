package identity

import (
	"strings"
	"unicode"
)

// NormalizePhone rewrites Ghanaian phone numbers into +233 E.164 form.
// Local "0XXXXXXXXX", bare nine digit and "233..." inputs are all accepted.
// Other international numbers keep their leading plus.
func NormalizePhone(input string) string {
	trimmed := strings.TrimSpace(input)

	var b strings.Builder
	for _, r := range trimmed {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	switch {
	case digits == "":
		return trimmed
	case strings.HasPrefix(digits, "233") && len(digits) == 12:
		return "+" + digits
	case strings.HasPrefix(digits, "0") && len(digits) == 10:
		return "+233" + digits[1:]
	case len(digits) == 9:
		return "+233" + digits
	case strings.HasPrefix(trimmed, "+"):
		return trimmed
	default:
		return "+" + digits
	}
}
