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

package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/aidekit/assistant/internal/models"
)

// Memory is an in-process ledger for tests and single-node deployments.
// Each user has their own lock, so writers for different users never
// contend beyond the brief map lookup.
type Memory struct {
	mu    sync.RWMutex
	users map[string]*userLog
}

type userLog struct {
	mu      sync.Mutex
	records []models.RecommendationRecord
}

// NewMemory creates an empty in-memory ledger.
func NewMemory() *Memory {
	return &Memory{users: make(map[string]*userLog)}
}

func (m *Memory) logFor(userID string) *userLog {
	m.mu.RLock()
	ul, ok := m.users[userID]
	m.mu.RUnlock()
	if ok {
		return ul
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if ul, ok = m.users[userID]; !ok {
		ul = &userLog{}
		m.users[userID] = ul
	}
	return ul
}

// Append implements Ledger. IDs start at 1 per user.
func (m *Memory) Append(_ context.Context, rec models.RecommendationRecord) (models.RecommendationRecord, error) {
	ul := m.logFor(rec.UserID)

	ul.mu.Lock()
	defer ul.mu.Unlock()

	rec.ID = int64(len(ul.records)) + 1
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	ul.records = append(ul.records, rec)
	return rec, nil
}

// ListFor implements Ledger.
func (m *Memory) ListFor(_ context.Context, userID string) ([]models.RecommendationRecord, error) {
	ul := m.logFor(userID)

	ul.mu.Lock()
	defer ul.mu.Unlock()

	out := make([]models.RecommendationRecord, len(ul.records))
	copy(out, ul.records)
	return out, nil
}
