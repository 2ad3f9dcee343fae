// Package version reports the build identity shown by --version and in the
// startup log line.
package version

import (
	"fmt"
	"runtime/debug"
)

// These variables are populated at build time via -ldflags.
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// String is "<version> (<commit>) <date>". Binaries built with go install
// carry no ldflags, so the module version and VCS stamp fill in.
func String() string {
	v, commit, date := Version, Commit, Date
	if info, ok := debug.ReadBuildInfo(); ok {
		if v == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
			v = info.Main.Version
		}
		for _, s := range info.Settings {
			switch {
			case s.Key == "vcs.revision" && commit == "":
				commit = shortRev(s.Value)
			case s.Key == "vcs.time" && date == "":
				date = s.Value
			}
		}
	}
	if commit != "" {
		v += fmt.Sprintf(" (%s)", commit)
	}
	if date != "" {
		v += " " + date
	}
	return v
}

func shortRev(r string) string {
	if len(r) > 12 {
		return r[:12]
	}
	return r
}
