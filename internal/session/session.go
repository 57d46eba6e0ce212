// Package session holds the single active authenticated user and mirrors
// it into one JSON file, so a process restart re-enters the last session
// from durable local state without re-validating the password.
package session

import (
	"encoding/json"
	"os"
	"sync"

	"virtualDeviceManagement/models"
)

// Store is the single-session store. The zero session is anonymous.
type Store struct {
	path string

	mu      sync.Mutex
	current *models.User
}

// NewStore creates a session store backed by the given file path.
// The file is not touched until Load, Set or Clear is called.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load rehydrates the session from the backing file. A missing or
// malformed file leaves the session anonymous and is not an error: the
// mirror is best-effort display state, not a credential.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.current = nil
			return nil
		}
		return err
	}
	var u models.User
	if err := json.Unmarshal(data, &u); err != nil || u.ID == "" {
		s.current = nil
		return nil
	}
	s.current = &u
	return nil
}

// Current returns the session holder, or nil when anonymous.
func (s *Store) Current() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Set establishes the session for the given user and writes the mirror file.
func (s *Store) Set(u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = u
	data, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

// Clear drops the session and removes the mirror file. Idempotent.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = nil
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
