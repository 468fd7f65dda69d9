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

// Package ledger stores the agent's recommendation records: an
// append-only, per-user ordered audit log. Records are never updated
// or deleted once written.
package ledger

import (
	"context"

	"github.com/aidekit/assistant/internal/models"
)

// Ledger is the append-only recommendation log.
//
// Append assigns the record's ID (monotonic per user) and returns the
// stored record. ListFor returns a user's records in insertion order,
// oldest first. Appends for the same user are totally ordered; appends
// for different users do not block each other.
type Ledger interface {
	Append(ctx context.Context, rec models.RecommendationRecord) (models.RecommendationRecord, error)
	ListFor(ctx context.Context, userID string) ([]models.RecommendationRecord, error)
}
