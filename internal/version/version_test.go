package version

import (
	"strings"
	"testing"
)

func TestStringUsesLdflags(t *testing.T) {
	old := [3]string{Version, Commit, Date}
	defer func() { Version, Commit, Date = old[0], old[1], old[2] }()
	Version, Commit, Date = "v1.2.3", "abc123", "2024-03-05"
	got := String()
	if !strings.HasPrefix(got, "v1.2.3 (abc123) 2024-03-05") {
		t.Fatalf("String() = %q", got)
	}
}

func TestShortRev(t *testing.T) {
	if got := shortRev("0123456789abcdef"); got != "0123456789ab" {
		t.Fatalf("shortRev = %q", got)
	}
	if got := shortRev("abc"); got != "abc" {
		t.Fatalf("shortRev = %q", got)
	}
}
