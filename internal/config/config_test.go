package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Port != "8080" || cfg.HistoryWindow != 5 || cfg.SessionTTL != 30*time.Minute {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.ChatProfile != "strict" || cfg.StreamProfile != "lenient" {
		t.Errorf("unexpected profiles: %q / %q", cfg.ChatProfile, cfg.StreamProfile)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("DATA_DIR", "/srv/data")
	t.Setenv("ALLOWED_ORIGINS", "https://a.dev, https://b.dev")
	t.Setenv("SESSION_TTL", "5m")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Port != "9090" || cfg.DataDir != "/srv/data" || cfg.SessionTTL != 5*time.Minute {
		t.Errorf("env not applied: %+v", cfg)
	}
	if want := []string{"https://a.dev", "https://b.dev"}; !reflect.DeepEqual(cfg.AllowedOrigins, want) {
		t.Errorf("origins = %v, want %v", cfg.AllowedOrigins, want)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chat.yaml")
	os.WriteFile(path, []byte("owner_name: Ada\nhistory_window: 3\nallowed_origins:\n  - https://ada.dev\n"), 0o644)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.OwnerName != "Ada" || cfg.HistoryWindow != 3 {
		t.Errorf("file not applied: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.AllowedOrigins, []string{"https://ada.dev"}) {
		t.Errorf("origins = %v", cfg.AllowedOrigins)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("an explicit config file must exist")
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{Port: "1", HistoryWindow: 0, SessionTTL: time.Minute}
	if cfg.Validate() == nil {
		t.Error("zero history window should be rejected")
	}
	cfg.HistoryWindow = 1
	if err := cfg.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
}
