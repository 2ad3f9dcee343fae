package util

import "regexp"

var (
	reEmail = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	reToken = regexp.MustCompile(`(?i)\b(api|secret|token|key)([=:]\s*)[A-Za-z0-9_-]{8,}`)
	rePhone = regexp.MustCompile(`\+?\d[\d ()-]{8,}\d`)
)

// RedactPII masks emails, phone numbers and key=value secrets in cell text
// before it leaves the machine.
func RedactPII(s string) string {
	s = reEmail.ReplaceAllString(s, "[redacted-email]")
	s = reToken.ReplaceAllString(s, "$1$2[redacted]")
	s = rePhone.ReplaceAllString(s, "[redacted-phone]")
	return s
}
