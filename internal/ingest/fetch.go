package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"sheetview/internal/sheetref"
	"sheetview/internal/util/logx"
)

const DefaultMaxBytes int64 = 50 << 20

var (
	ErrEmptyReference = errors.New("please enter a Google Sheet URL or ID")
	ErrNotPublished   = errors.New("invalid format: ensure the sheet is published to the web")
)

// StatusError is returned for non-2xx export responses.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string { return fmt.Sprintf("HTTP %d", e.Code) }

// Fetcher downloads the CSV export of a Google sheet.
type Fetcher struct {
	Client   *http.Client
	Base     string // export host override; empty means docs.google.com
	MaxBytes int64
	Now      func() time.Time
}

func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{
		Client:   &http.Client{Timeout: timeout},
		MaxBytes: DefaultMaxBytes,
		Now:      time.Now,
	}
}

// Fetch returns the raw CSV text of ref. Responses that look like an HTML
// page (Google serves a sign-in page for private sheets) are rejected.
func (f *Fetcher) Fetch(ctx context.Context, ref sheetref.Reference) (string, error) {
	if !ref.Valid() {
		return "", ErrEmptyReference
	}
	if f.Base != "" {
		ref = ref.WithBase(f.Base)
	}
	now := time.Now
	if f.Now != nil {
		now = f.Now
	}
	u := ref.ExportURL(now())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("fetch sheet: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache, no-store")
	req.Header.Set("Pragma", "no-cache")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch sheet: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logx.Warnf("fetch: %s -> %d", ref, resp.StatusCode)
		return "", &StatusError{Code: resp.StatusCode}
	}
	limit := f.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return "", fmt.Errorf("fetch sheet: %w", err)
	}
	if looksLikeHTML(body) {
		return "", ErrNotPublished
	}
	logx.Debugf("fetch: %s %d bytes in %s", ref, len(body), time.Since(start).Round(time.Millisecond))
	return string(body), nil
}

func looksLikeHTML(body []byte) bool {
	if len(bytes.TrimSpace(body)) == 0 {
		return true
	}
	return bytes.Contains(bytes.ToLower(body), []byte("<!doctype html"))
}
