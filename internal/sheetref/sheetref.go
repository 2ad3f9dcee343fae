// Package sheetref turns user-typed Google Sheets links into document ids and
// builds the CSV export URLs for them.
package sheetref

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const (
	DefaultBase = "https://docs.google.com"
	// PublishedPrefix marks ids minted by "publish to web".
	PublishedPrefix = "2PACX-"
)

var (
	rePublished = regexp.MustCompile(`/spreadsheets/d/e/([a-zA-Z0-9_-]+)`)
	reStandard  = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9_-]+)`)
)

// ResolveID extracts the document id from a sheet URL. Input that matches
// neither URL shape is returned trimmed, on the assumption it is a bare id.
func ResolveID(input string) string {
	s := strings.TrimSpace(input)
	if s == "" {
		return ""
	}
	if m := rePublished.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	if m := reStandard.FindStringSubmatch(s); m != nil {
		if m[1] != "e" {
			return m[1]
		}
		if m2 := rePublished.FindStringSubmatch(s); m2 != nil {
			return m2[1]
		}
	}
	return s
}

type Reference struct {
	ID  string
	Tab string
	// Base overrides the export host; empty means DefaultBase.
	Base string
}

func Resolve(input, tab string) Reference {
	return Reference{ID: ResolveID(input), Tab: strings.TrimSpace(tab)}
}

func (r Reference) WithBase(base string) Reference {
	r.Base = strings.TrimRight(base, "/")
	return r
}

func (r Reference) Valid() bool { return r.ID != "" }

func (r Reference) Published() bool { return strings.HasPrefix(r.ID, PublishedPrefix) }

// ExportURL builds the CSV endpoint for the reference. A cache-busting
// parameter derived from now is always appended.
func (r Reference) ExportURL(now time.Time) string {
	base := r.Base
	if base == "" {
		base = DefaultBase
	}
	id := url.PathEscape(r.ID)
	tab := strings.TrimSpace(r.Tab)
	var u string
	if r.Published() {
		u = fmt.Sprintf("%s/spreadsheets/d/e/%s/pub?output=csv", base, id)
		if tab != "" {
			u += "&gid=" + url.QueryEscape(tab)
		}
	} else {
		u = fmt.Sprintf("%s/spreadsheets/d/%s/gviz/tq?tqx=out:csv", base, id)
		if tab != "" {
			u += "&sheet=" + url.QueryEscape(tab)
		}
	}
	return fmt.Sprintf("%s&_cb=%d", u, now.UnixMilli())
}

func (r Reference) String() string {
	if r.Tab == "" {
		return r.ID
	}
	return r.ID + "#" + r.Tab
}
