package internal

import "net/http"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config     *Config
	httpClient *http.Client
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithHTTPClient overrides the HTTP transport, mainly for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(a *application) {
		a.httpClient = h
	}
}
