// Package session holds the bearer token for outgoing requests.
package session

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// Session is the source of auth headers for the resource client. A session
// without a token is valid: requests simply go out unauthenticated and the
// remote service decides whether to reject them.
//
// The token may change between calls (for example when the token file is
// rewritten), so Headers must be consulted immediately before every
// request and never cached by callers.
type Session struct {
	mu        sync.RWMutex
	token     string
	tokenFile string
}

// New creates a session. When tokenFile is non-empty the file is read for
// the initial token; a missing file is not an error and leaves the session
// unauthenticated until the file appears.
func New(token, tokenFile string) (*Session, error) {
	s := &Session{token: strings.TrimSpace(token), tokenFile: tokenFile}
	if tokenFile != "" {
		if err := s.Reload(); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("session: read token file: %w", err)
		}
	}
	return s, nil
}

// Headers returns the auth headers for the next request: a single
// Authorization bearer entry when a token is held, an empty map otherwise.
func (s *Session) Headers() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return map[string]string{}
	}
	return map[string]string{"Authorization": "Bearer " + s.token}
}

// Token returns the current token, empty when unauthenticated.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// SetToken replaces the current token. An empty string drops to
// unauthenticated.
func (s *Session) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = strings.TrimSpace(token)
}

// Reload re-reads the token file, if one is configured. A vanished file
// clears the token.
func (s *Session) Reload() error {
	if s.tokenFile == "" {
		return nil
	}
	data, err := os.ReadFile(s.tokenFile)
	if err != nil {
		if os.IsNotExist(err) {
			s.SetToken("")
		}
		return err
	}
	s.SetToken(string(data))
	return nil
}
