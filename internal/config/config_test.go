package config

import (
	"testing"
	"time"
)

func TestLoadArgsDefaults(t *testing.T) {
	t.Setenv("SHEETVIEW_SYNC_INTERVAL", "")
	cfg, err := LoadArgs(nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SyncInterval != 30*time.Second {
		t.Fatalf("interval: %s", cfg.SyncInterval)
	}
	if cfg.Theme != ThemeDark || cfg.SheetFromFlag || cfg.FileFromFlag {
		t.Fatalf("defaults: %+v", cfg)
	}
}

func TestLoadArgsFlags(t *testing.T) {
	cfg, err := LoadArgs([]string{"--sheet", "abc", "--tab", "Sheet2", "--auto-sync", "--file", "data.csv", "--watch", "--sync-interval", "5s", "--theme", "LIGHT"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SheetInput != "abc" || cfg.TabName != "Sheet2" || !cfg.AutoSync || !cfg.Watch {
		t.Fatalf("flags: %+v", cfg)
	}
	if !cfg.SheetFromFlag || !cfg.FileFromFlag {
		t.Fatalf("explicit flags not recorded")
	}
	if cfg.SyncInterval != 5*time.Second || cfg.Theme != ThemeLight {
		t.Fatalf("interval/theme: %s %s", cfg.SyncInterval, cfg.Theme)
	}
}

func TestLoadArgsEnv(t *testing.T) {
	t.Setenv("SHEETVIEW_SHEET", "from-env")
	t.Setenv("SHEETVIEW_AUTO_SYNC", "true")
	t.Setenv("SHEETVIEW_SYNC_INTERVAL", "45s")
	cfg, err := LoadArgs(nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SheetInput != "from-env" || !cfg.AutoSync || cfg.SyncInterval != 45*time.Second {
		t.Fatalf("env: %+v", cfg)
	}
	if cfg.SheetFromFlag {
		t.Fatalf("env value must not count as a flag")
	}
}

func TestLoadArgsRejects(t *testing.T) {
	cases := [][]string{
		{"--theme", "neon"},
		{"--sync-interval", "10ms"},
		{"--watch"},
		{"--fetch-timeout", "0s"},
	}
	for _, args := range cases {
		if _, err := LoadArgs(args); err == nil {
			t.Fatalf("%v: expected error", args)
		}
	}
}
