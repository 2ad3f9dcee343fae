package util

import "testing"

func TestRedactPII(t *testing.T) {
	cases := map[string]string{
		"mail jane.doe@example.org now": "mail [redacted-email] now",
		"token=abcdef123456":            "token=[redacted]",
		"API: ABCDEFGH12":               "API: [redacted]",
		"call +91 98765 43210":          "call [redacted-phone]",
		"qty 12, price 3.50":            "qty 12, price 3.50",
	}
	for in, want := range cases {
		if got := RedactPII(in); got != want {
			t.Fatalf("%q: got %q want %q", in, got, want)
		}
	}
}
