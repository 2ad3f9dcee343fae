package ingest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sheetview/internal/sheetref"
)

func stubServer(t *testing.T, status int, body string, seen *http.Request) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			*seen = *r.Clone(context.Background())
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func fetcher(base string) *Fetcher {
	f := NewFetcher(5 * time.Second)
	f.Base = base
	f.Now = func() time.Time { return time.UnixMilli(1700000000000) }
	return f
}

func TestFetchOK(t *testing.T) {
	var req http.Request
	srv := stubServer(t, 200, "a,b\n1,2\n", &req)
	got, err := fetcher(srv.URL).Fetch(context.Background(), sheetref.Resolve("abc", "Tab 1"))
	if err != nil {
		t.Fatal(err)
	}
	if got != "a,b\n1,2\n" {
		t.Fatalf("body %q", got)
	}
	if req.URL.Path != "/spreadsheets/d/abc/gviz/tq" || req.URL.Query().Get("sheet") != "Tab 1" {
		t.Fatalf("url %s", req.URL)
	}
	if req.URL.Query().Get("_cb") != "1700000000000" {
		t.Fatalf("cache buster missing: %s", req.URL)
	}
	if !strings.Contains(req.Header.Get("Cache-Control"), "no-cache") || req.Header.Get("Pragma") != "no-cache" {
		t.Fatalf("no-cache headers missing: %v", req.Header)
	}
}

func TestFetchPublished(t *testing.T) {
	var req http.Request
	srv := stubServer(t, 200, "x\n1\n", &req)
	_, err := fetcher(srv.URL).Fetch(context.Background(), sheetref.Resolve("https://docs.google.com/spreadsheets/d/e/2PACX-1vQ/pubhtml", "0"))
	if err != nil {
		t.Fatal(err)
	}
	if req.URL.Path != "/spreadsheets/d/e/2PACX-1vQ/pub" || req.URL.Query().Get("gid") != "0" || req.URL.Query().Get("output") != "csv" {
		t.Fatalf("url %s", req.URL)
	}
}

func TestFetchErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
	}{
		{"status", 404, "nope", func(err error) bool {
			var se *StatusError
			return errors.As(err, &se) && se.Code == 404 && err.Error() == "HTTP 404"
		}},
		{"html", 200, "<!DOCTYPE html><html>sign in</html>", func(err error) bool { return errors.Is(err, ErrNotPublished) }},
		{"html lower", 200, "\n<!doctype html>", func(err error) bool { return errors.Is(err, ErrNotPublished) }},
		{"empty", 200, "  \n", func(err error) bool { return errors.Is(err, ErrNotPublished) }},
	}
	for _, tc := range cases {
		srv := stubServer(t, tc.status, tc.body, nil)
		_, err := fetcher(srv.URL).Fetch(context.Background(), sheetref.Resolve("abc", ""))
		if !tc.check(err) {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
	}
}

func TestFetchEmptyReference(t *testing.T) {
	_, err := fetcher("http://127.0.0.1:1").Fetch(context.Background(), sheetref.Resolve("   ", ""))
	if !errors.Is(err, ErrEmptyReference) {
		t.Fatalf("got %v", err)
	}
}

func TestFetchTransportError(t *testing.T) {
	srv := stubServer(t, 200, "", nil)
	base := srv.URL
	srv.Close()
	_, err := fetcher(base).Fetch(context.Background(), sheetref.Resolve("abc", ""))
	if err == nil || !strings.HasPrefix(err.Error(), "fetch sheet: ") {
		t.Fatalf("got %v", err)
	}
}

func TestFetchLimitsBody(t *testing.T) {
	srv := stubServer(t, 200, "a,b\n"+strings.Repeat("x", 100), nil)
	f := fetcher(srv.URL)
	f.MaxBytes = 10
	got, err := f.Fetch(context.Background(), sheetref.Resolve("abc", ""))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 10 {
		t.Fatalf("len %d", len(got))
	}
}
