package internal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	pkgconfig "github.com/starford/ansuz/pkg/config"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Remote.Timeout() != 30*time.Second {
		t.Errorf("timeout = %v", cfg.Remote.Timeout())
	}
}

func TestConfigRequiresBaseURL(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Remote.BaseURL = ""
	if err := cfg.Validate(); err == nil {
		t.Error("empty base_url should fail validation")
	}

	cfg.Remote.BaseURL = "not a url"
	if err := cfg.Validate(); err == nil {
		t.Error("malformed base_url should fail validation")
	}
}

func TestAuthTokenSourcesMutuallyExclusive(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Token = "literal"
	cfg.Auth.TokenFile = "/run/secrets/token"
	if err := cfg.Validate(); err == nil {
		t.Error("token and token_file together should fail validation")
	}

	cfg.Auth.TokenFile = ""
	if err := cfg.Validate(); err != nil {
		t.Errorf("token alone should be valid: %v", err)
	}
}

func TestDefaultsMustBePositive(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Defaults.SearchK = 0
	if err := cfg.Validate(); err == nil {
		t.Error("zero search_k should fail validation")
	}

	cfg = NewDefaultConfig()
	cfg.Defaults.PerCluster = -1
	if err := cfg.Validate(); err == nil {
		t.Error("negative per_cluster should fail validation")
	}
}

func TestLoadConfigFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
remote:
  base_url: "https://notes.example.com"
  timeout_seconds: 5
auth:
  token: "${ANSUZ_TEST_TOKEN}"
defaults:
  book_limit: 50
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ANSUZ_TEST_TOKEN", "from-env")

	cfg := NewDefaultConfig()
	found, err := pkgconfig.LoadIfPresent(path, cfg)
	if err != nil {
		t.Fatalf("LoadIfPresent: %v", err)
	}
	if !found {
		t.Fatal("config file not found")
	}
	if cfg.Remote.BaseURL != "https://notes.example.com" {
		t.Errorf("base_url = %q", cfg.Remote.BaseURL)
	}
	if cfg.Remote.Timeout() != 5*time.Second {
		t.Errorf("timeout = %v", cfg.Remote.Timeout())
	}
	if cfg.Auth.Token != "from-env" {
		t.Errorf("token = %q, want env expansion", cfg.Auth.Token)
	}
	// Overridden field sticks, untouched defaults survive.
	if cfg.Defaults.BookLimit != 50 || cfg.Defaults.NoteLimit != 20 {
		t.Errorf("defaults = %+v", cfg.Defaults)
	}
}

func TestLoadConfigMissingFileKeepsDefaults(t *testing.T) {
	cfg := NewDefaultConfig()
	found, err := pkgconfig.LoadIfPresent(filepath.Join(t.TempDir(), "nope.yaml"), cfg)
	if err != nil {
		t.Fatalf("LoadIfPresent: %v", err)
	}
	if found {
		t.Error("found = true for missing file")
	}
	if cfg.Remote.BaseURL != "http://127.0.0.1:8000" {
		t.Errorf("base_url = %q, want default", cfg.Remote.BaseURL)
	}
}
