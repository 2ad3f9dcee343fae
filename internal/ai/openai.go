package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	altai "github.com/sashabaranov/go-openai"

	"sheetview/internal/model"
	"sheetview/internal/util"
)

// MaxSampleRows caps how many rows are sent with a summary request.
const MaxSampleRows = 30

var ErrDisabled = errors.New("openai disabled: set OPENAI_API_KEY and drop --offline")

type Client struct {
	apiKey  string
	baseURL string
	model   string
	timeout time.Duration
}

// NewClient returns nil when apiKey is empty; a nil client reports
// ErrDisabled.
func NewClient(apiKey, baseURL, model string, timeout time.Duration) *Client {
	if strings.TrimSpace(apiKey) == "" {
		return nil
	}
	return &Client{apiKey: apiKey, baseURL: baseURL, model: model, timeout: timeout}
}

func (c *Client) Enabled() bool { return c != nil && c.apiKey != "" }

// Summary is what the model reports about a sheet.
type Summary struct {
	Overview string            `json:"overview"`
	Columns  map[string]string `json:"columns"`
	Notes    []string          `json:"notes"`
}

func (s Summary) String() string {
	var b strings.Builder
	b.WriteString(s.Overview)
	if len(s.Columns) > 0 {
		b.WriteString("\n\nColumns:\n")
		for _, k := range sortedKeys(s.Columns) {
			fmt.Fprintf(&b, "  %s: %s\n", k, s.Columns[k])
		}
	}
	if len(s.Notes) > 0 {
		b.WriteString("\nNotes:\n")
		for _, n := range s.Notes {
			fmt.Fprintf(&b, "  - %s\n", n)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// Summarize describes the table from its headers and a redacted sample of
// rows.
func (c *Client) Summarize(ctx context.Context, headers []string, rows []model.Row) (Summary, error) {
	if !c.Enabled() {
		return Summary{}, ErrDisabled
	}
	if len(headers) == 0 {
		return Summary{}, errors.New("no data to summarize")
	}
	prompt := BuildPrompt(headers, rows)
	ctx2, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	resp, err := c.call(ctx2, prompt)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize: %w", err)
	}
	var out Summary
	if err := json.Unmarshal([]byte(resp), &out); err != nil {
		return Summary{}, fmt.Errorf("summarize: bad response: %w", err)
	}
	return out, nil
}

func (c *Client) call(ctx context.Context, prompt string) (string, error) {
	cfg := altai.DefaultConfig(c.apiKey)
	if c.baseURL != "" {
		cfg.BaseURL = c.baseURL
	}
	cli := altai.NewClientWithConfig(cfg)
	resp, err := cli.CreateChatCompletion(ctx, altai.ChatCompletionRequest{
		Model: c.model,
		Messages: []altai.ChatCompletionMessage{
			{Role: altai.ChatMessageRoleSystem, Content: "You summarize spreadsheet data and return ONLY strict JSON following the specified contract. No prose, no code fences."},
			{Role: altai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature:    0.2,
		ResponseFormat: &altai.ChatCompletionResponseFormat{Type: altai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// BuildPrompt renders headers and up to MaxSampleRows rows as CSV-ish text,
// with PII redacted.
func BuildPrompt(headers []string, rows []model.Row) string {
	n := min(len(rows), MaxSampleRows)
	var b strings.Builder
	b.WriteString("Summarize the table below and return ONLY strict JSON matching this contract: ")
	b.WriteString("{overview: string, columns: {<header>: short description}, notes: [string]}.\n")
	fmt.Fprintf(&b, "The table has %d rows; %d are shown.\n", len(rows), n)
	b.WriteString(util.RedactPII(strings.Join(headers, " | ")))
	b.WriteByte('\n')
	for i := 0; i < n; i++ {
		b.WriteString(util.RedactPII(strings.Join(rows[i].Strings(), " | ")))
		b.WriteByte('\n')
	}
	return b.String()
}

func sortedKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
