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
	"fmt"
	"sync"
	"testing"

	"github.com/aidekit/assistant/internal/models"
)

func TestMemory_AppendAssignsMonotonicIDs(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		rec, err := m.Append(ctx, models.RecommendationRecord{
			UserID:  "u1",
			Type:    models.ActionMeetingCreated,
			Message: fmt.Sprintf("запись %d", i),
		})
		if err != nil {
			t.Fatalf("append: %v", err)
		}
		if rec.ID != int64(i)+1 {
			t.Errorf("record %d got id %d, want %d", i, rec.ID, i+1)
		}
		if rec.Timestamp.IsZero() {
			t.Error("timestamp not assigned")
		}
	}
}

func TestMemory_ListForPreservesInsertionOrder(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if _, err := m.Append(ctx, models.RecommendationRecord{
			UserID:  "u1",
			Message: fmt.Sprintf("запись %d", i),
		}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	records, err := m.ListFor(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 10 {
		t.Fatalf("got %d records, want 10", len(records))
	}
	for i, rec := range records {
		if want := fmt.Sprintf("запись %d", i); rec.Message != want {
			t.Errorf("record %d message = %q, want %q", i, rec.Message, want)
		}
	}
}

func TestMemory_UsersAreIsolated(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	m.Append(ctx, models.RecommendationRecord{UserID: "alice", Message: "a"})
	m.Append(ctx, models.RecommendationRecord{UserID: "bob", Message: "b"})
	rec, _ := m.Append(ctx, models.RecommendationRecord{UserID: "alice", Message: "a2"})

	if rec.ID != 2 {
		t.Errorf("alice's second record id = %d, want 2 (per-user numbering)", rec.ID)
	}

	bobs, _ := m.ListFor(ctx, "bob")
	if len(bobs) != 1 {
		t.Errorf("bob has %d records, want 1", len(bobs))
	}
	empty, _ := m.ListFor(ctx, "nobody")
	if len(empty) != 0 {
		t.Errorf("unknown user has %d records, want 0", len(empty))
	}
}

// TestMemory_ConcurrentAppends: same-user appends keep a total order
// and dense ids under concurrent writers for other users.
func TestMemory_ConcurrentAppends(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	const perUser = 50
	users := []string{"u1", "u2", "u3"}

	var wg sync.WaitGroup
	for _, user := range users {
		wg.Add(1)
		go func(user string) {
			defer wg.Done()
			for i := 0; i < perUser; i++ {
				if _, err := m.Append(ctx, models.RecommendationRecord{
					UserID:  user,
					Message: "параллельная запись",
				}); err != nil {
					t.Errorf("append for %s: %v", user, err)
					return
				}
			}
		}(user)
	}
	wg.Wait()

	for _, user := range users {
		records, err := m.ListFor(ctx, user)
		if err != nil {
			t.Fatalf("list for %s: %v", user, err)
		}
		if len(records) != perUser {
			t.Fatalf("%s has %d records, want %d", user, len(records), perUser)
		}
		for i, rec := range records {
			if rec.ID != int64(i)+1 {
				t.Errorf("%s record %d id = %d, want %d", user, i, rec.ID, i+1)
			}
		}
	}
}
