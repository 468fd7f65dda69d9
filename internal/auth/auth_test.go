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
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestManager_IssueAndVerify(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	token, err := m.Issue("u1", "ivan@mail.ru")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "u1" {
		t.Errorf("subject = %q, want u1", claims.Subject)
	}
	if claims.Email != "ivan@mail.ru" {
		t.Errorf("email = %q, want ivan@mail.ru", claims.Email)
	}
	if claims.Service {
		t.Error("user token must not carry the service flag")
	}
}

func TestManager_RejectsWrongSecret(t *testing.T) {
	token, err := NewManager("secret-a", time.Hour).Issue("u1", "a@b.c")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := NewManager("secret-b", time.Hour).Verify(token); err == nil {
		t.Fatal("token signed with another secret must not verify")
	}
}

func TestManager_RejectsExpired(t *testing.T) {
	m := NewManager("test-secret", -time.Minute)

	token, err := m.Issue("u1", "a@b.c")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Verify(token); err == nil {
		t.Fatal("expired token must not verify")
	}
}

func TestManager_ServiceToken(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	token, err := m.ServiceToken("u1")
	if err != nil {
		t.Fatalf("service token: %v", err)
	}

	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !claims.Service {
		t.Error("service flag not set")
	}
	if claims.Subject != "u1" {
		t.Errorf("subject = %q, want u1", claims.Subject)
	}
}

func TestFileStore_RegisterAndAuthenticate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")

	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	user, err := store.Register("Ivan.Petrov@mail.ru", "s3cret")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Email != "ivan.petrov@mail.ru" {
		t.Errorf("email = %q, want normalized lowercase", user.Email)
	}
	if user.PasswordHash == "s3cret" {
		t.Error("password stored in plaintext")
	}

	if _, err := store.Register("ivan.petrov@mail.ru", "other"); !errors.Is(err, ErrUserExists) {
		t.Errorf("duplicate register error = %v, want ErrUserExists", err)
	}

	got, err := store.Authenticate("ivan.petrov@mail.ru", "s3cret")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("authenticated user ID = %q, want %q", got.ID, user.ID)
	}

	if _, err := store.Authenticate("ivan.petrov@mail.ru", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("bad password error = %v, want ErrInvalidCredentials", err)
	}
	if _, err := store.Authenticate("nobody@mail.ru", "s3cret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email error = %v, want ErrInvalidCredentials", err)
	}
}

func TestFileStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")

	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	user, err := store.Register("anna@mail.ru", "pw")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	reopened, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	got, err := reopened.Get(user.ID)
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if got.Email != "anna@mail.ru" {
		t.Errorf("email = %q after reopen", got.Email)
	}

	ids, err := reopened.UserIDs()
	if err != nil {
		t.Fatalf("user ids: %v", err)
	}
	if len(ids) != 1 || ids[0] != user.ID {
		t.Errorf("user ids = %v, want [%s]", ids, user.ID)
	}
}

func TestFileStore_GetUnknown(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "users.json"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if _, err := store.Get("missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("error = %v, want ErrUserNotFound", err)
	}
}
