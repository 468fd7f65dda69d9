// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// User is a registered account. PasswordHash is bcrypt.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

var (
	// ErrUserExists is returned when registering an email that is taken.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidCredentials is returned on a bad email/password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound is returned when no user has the given ID.
	ErrUserNotFound = errors.New("user not found")
)

// UserStore is the account registry.
type UserStore interface {
	Register(email, password string) (*User, error)
	Authenticate(email, password string) (*User, error)
	Get(userID string) (*User, error)
	UserIDs() ([]string, error)
}

// FileStore keeps users in a single JSON file, loaded at startup and
// rewritten whole on every registration. Suitable for the small
// single-node deployments this service targets.
type FileStore struct {
	mu    sync.RWMutex
	path  string
	users map[string]*User // keyed by ID
}

// NewFileStore opens (or initialises) the user file at path.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, users: make(map[string]*User)}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var users []*User
		if err := json.Unmarshal(data, &users); err != nil {
			return nil, fmt.Errorf("parse users file %s: %w", path, err)
		}
		for _, u := range users {
			s.users[u.ID] = u
		}
	case os.IsNotExist(err):
		// first run, file is created on first registration
	default:
		return nil, fmt.Errorf("read users file %s: %w", path, err)
	}

	return s, nil
}

// Register creates an account with a bcrypt-hashed password.
func (s *FileStore) Register(email, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, fmt.Errorf("email and password are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			return nil, ErrUserExists
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	s.users[user.ID] = user

	if err := s.persist(); err != nil {
		delete(s.users, user.ID)
		return nil, err
	}
	return user, nil
}

// Authenticate checks an email/password pair.
func (s *FileStore) Authenticate(email, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
				return nil, ErrInvalidCredentials
			}
			return u, nil
		}
	}
	return nil, ErrInvalidCredentials
}

// Get returns the user with the given ID.
func (s *FileStore) Get(userID string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// UserIDs lists all account IDs. The inbox poller iterates these.
func (s *FileStore) UserIDs() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	return ids, nil
}

// persist writes the whole registry atomically via a temp file rename.
// Caller holds the write lock.
func (s *FileStore) persist() error {
	users := make([]*User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}

	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal users: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create users dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write users file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace users file: %w", err)
	}
	return nil
}
