package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Remote   RemoteConfig      `yaml:"remote"`
	Auth     AuthConfig        `yaml:"auth"`
	Cache    CacheConfig       `yaml:"cache"`
	Defaults DefaultsConfig    `yaml:"defaults"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Remote.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	return c.Defaults.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
}

// RemoteConfig describes the Reading Notes service endpoint.
type RemoteConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the per-request timeout for the HTTP client. Zero means
// the client default applies.
func (c *RemoteConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Validate validates the remote configuration.
func (c *RemoteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required, is.URL),
		validation.Field(&c.TimeoutSeconds, validation.Min(0)),
	)
}

// AuthConfig holds the bearer token source. An empty configuration is
// valid: requests go out unauthenticated and the remote service decides
// whether to reject them.
//
// Token is a literal token; TokenFile points at a file whose contents are
// the token, reloaded when the file changes. At most one may be set.
type AuthConfig struct {
	Token     string `yaml:"token"`
	TokenFile string `yaml:"token_file"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Token != "" && c.TokenFile != "" {
		return fmt.Errorf("auth: token and token_file are mutually exclusive")
	}
	return nil
}

// CacheConfig holds the snapshot cache location. An empty path disables
// the cache.
type CacheConfig struct {
	Path string `yaml:"path"`
}

// DefaultsConfig holds the default request parameters used when a command
// does not specify its own.
type DefaultsConfig struct {
	BookLimit  int `yaml:"book_limit"`
	NoteLimit  int `yaml:"note_limit"`
	SearchK    int `yaml:"search_k"`
	ClusterK   int `yaml:"cluster_k"`
	PerCluster int `yaml:"per_cluster"`
}

// Validate validates the default request parameters.
func (c *DefaultsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BookLimit, validation.Required, validation.Min(1)),
		validation.Field(&c.NoteLimit, validation.Required, validation.Min(1)),
		validation.Field(&c.SearchK, validation.Required, validation.Min(1)),
		validation.Field(&c.ClusterK, validation.Required, validation.Min(1)),
		validation.Field(&c.PerCluster, validation.Required, validation.Min(1)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
		},
		Remote: RemoteConfig{
			BaseURL:        "http://127.0.0.1:8000",
			TimeoutSeconds: 30,
		},
		Cache: CacheConfig{
			Path: "./ansuz-snapshot.db",
		},
		Defaults: DefaultsConfig{
			BookLimit:  200,
			NoteLimit:  20,
			SearchK:    10,
			ClusterK:   3,
			PerCluster: 2,
		},
	}
}
