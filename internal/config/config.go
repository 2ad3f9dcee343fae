package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

type Config struct {
	SheetInput       string
	TabName          string
	AutoSync         bool
	FilePath         string
	Watch            bool
	SyncInterval     time.Duration
	FetchTimeout     time.Duration
	StatePath        string
	ExportDir        string
	Theme            Theme
	Offline          bool
	OpenAIModel      string
	OpenAIBase       string
	OpenAITimeoutSec int
	ShowVersion      bool

	// set when the matching flag was passed explicitly, so it overrides
	// persisted state
	SheetFromFlag bool
	FileFromFlag  bool
}

func Load() (*Config, error) {
	return LoadArgs(os.Args[1:])
}

// LoadArgs parses args after reading an optional .env from the working
// directory. Real environment variables win over .env entries.
func LoadArgs(args []string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	fs := flag.NewFlagSet("sheetview", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.SheetInput, "sheet", getenvDefault("SHEETVIEW_SHEET", ""), "Google Sheet URL or ID")
	fs.StringVar(&cfg.TabName, "tab", getenvDefault("SHEETVIEW_TAB", ""), "sheet tab name (gid for published sheets)")
	fs.BoolVar(&cfg.AutoSync, "auto-sync", getenvBool("SHEETVIEW_AUTO_SYNC", false), "re-fetch the Google sheet on an interval")
	fs.StringVar(&cfg.FilePath, "file", "", "local .xlsx, .xls or .csv file to open")
	fs.BoolVar(&cfg.Watch, "watch", false, "re-read the local file on an interval and follow CSV appends")
	fs.DurationVar(&cfg.SyncInterval, "sync-interval", getenvDuration("SHEETVIEW_SYNC_INTERVAL", 30*time.Second), "auto sync interval")
	fs.DurationVar(&cfg.FetchTimeout, "fetch-timeout", getenvDuration("SHEETVIEW_FETCH_TIMEOUT", 30*time.Second), "HTTP timeout for sheet fetches")
	fs.StringVar(&cfg.StatePath, "state", getenvDefault("SHEETVIEW_STATE", defaultStatePath()), "state database path (empty disables persistence)")
	fs.StringVar(&cfg.ExportDir, "export-dir", getenvDefault("SHEETVIEW_EXPORT_DIR", "."), "directory for exported files")
	theme := string(ThemeDark)
	fs.StringVar(&theme, "theme", getenvDefault("SHEETVIEW_THEME", string(ThemeDark)), "theme: dark|light")
	fs.BoolVar(&cfg.Offline, "offline", false, "disable OpenAI summaries")
	fs.StringVar(&cfg.OpenAIModel, "openai-model", getenvDefault("SHEETVIEW_OPENAI_MODEL", "gpt-4o-mini"), "OpenAI model override")
	fs.StringVar(&cfg.OpenAIBase, "openai-base-url", getenvDefault("SHEETVIEW_OPENAI_BASE_URL", ""), "OpenAI base URL override")
	fs.IntVar(&cfg.OpenAITimeoutSec, "openai-timeout-sec", getenvDefaultInt("SHEETVIEW_OPENAI_TIMEOUT_SEC", 60), "OpenAI request timeout in seconds")
	fs.BoolVar(&cfg.ShowVersion, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "sheet":
			cfg.SheetFromFlag = true
		case "file":
			cfg.FileFromFlag = true
		}
	})
	cfg.Theme = Theme(strings.ToLower(theme))
	if cfg.Theme != ThemeDark && cfg.Theme != ThemeLight {
		return nil, fmt.Errorf("unknown theme %q", theme)
	}
	if cfg.SyncInterval < time.Second {
		return nil, errors.New("--sync-interval must be at least 1s")
	}
	if cfg.FetchTimeout <= 0 {
		return nil, errors.New("--fetch-timeout must be positive")
	}
	if cfg.Watch && cfg.FilePath == "" {
		return nil, errors.New("--watch requires --file")
	}
	return cfg, nil
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "sheetview", "state.db")
}

func getenvDefault(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getenvDefaultInt(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}

func getenvBool(k string, d bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return d
}

func getenvDuration(k string, d time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if dur, err := time.ParseDuration(v); err == nil {
			return dur
		}
	}
	return d
}

func (c *Config) OpenAIKey() string { return os.Getenv("OPENAI_API_KEY") }

func (c *Config) String() string {
	return fmt.Sprintf("sheet=%q tab=%q auto=%v file=%s watch=%v interval=%s theme=%s offline=%v",
		c.SheetInput, c.TabName, c.AutoSync, c.FilePath, c.Watch, c.SyncInterval, c.Theme, c.Offline)
}
