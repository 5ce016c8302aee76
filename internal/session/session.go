// Package session persists the local login record (email plus optional
// token) under the user's cardadvisor directory. It is the Go analog of the
// web client's localStorage token/email pair: no expiry, valid until
// explicitly cleared.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultDir is the directory under the user's home for client state.
const DefaultDir = ".cardadvisor"

// FileName is the session file name within the state directory.
const FileName = "session.json"

// Session is the locally persisted proof of login. Token may be empty for
// variants of the backend that authenticate by email alone.
type Session struct {
	Email string `json:"email"`
	Token string `json:"token,omitempty"`
}

// Store reads and writes the session file rooted at a fixed directory.
// Callers inject a Store rather than reaching for ambient global state so
// tests can point it at a temp directory.
type Store struct {
	Dir string
}

// DefaultStore returns a Store rooted at ~/.cardadvisor.
func DefaultStore() (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("determining home directory: %w", err)
	}
	return &Store{Dir: filepath.Join(home, DefaultDir)}, nil
}

func (s *Store) path() string {
	return filepath.Join(s.Dir, FileName)
}

// Save persists the session. The file is user-only readable since it holds
// a bearer token.
func (s *Store) Save(sess Session) error {
	if err := os.MkdirAll(s.Dir, 0o700); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path(), data, 0o600); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	return nil
}

// Read returns the stored session. A missing or unreadable file is not an
// error: it reports ok=false, which callers treat as "not logged in".
func (s *Store) Read() (Session, bool) {
	data, err := os.ReadFile(s.path())
	if err != nil {
		return Session{}, false
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return Session{}, false
	}
	if sess.Email == "" {
		return Session{}, false
	}
	return sess, true
}

// Clear removes the session file. Clearing an absent session is a no-op.
func (s *Store) Clear() error {
	err := os.Remove(s.path())
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}
