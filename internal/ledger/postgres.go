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
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aidekit/assistant/internal/models"
)

// Store is the Postgres-backed ledger. BIGSERIAL ids are globally
// monotonic in append order, hence monotonic per user too; the
// database serializes same-user appends.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a ledger store backed by the given Postgres pool.
// It ensures the recommendations table exists on creation.
func NewStore(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	s := &Store{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure ledger schema: %w", err)
	}
	slog.Info("recommendation ledger initialised")
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS recommendations (
			id         BIGSERIAL PRIMARY KEY,
			user_id    TEXT NOT NULL,
			type       TEXT NOT NULL,
			message    TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			details    JSONB NOT NULL DEFAULT '{}'
		);
		CREATE INDEX IF NOT EXISTS idx_recs_user ON recommendations(user_id, id);
	`)
	return err
}

// Append implements Ledger. Insert-only: there is no update or delete
// path anywhere in this package.
func (s *Store) Append(ctx context.Context, rec models.RecommendationRecord) (models.RecommendationRecord, error) {
	details := rec.Details
	if details == nil {
		details = map[string]string{}
	}
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return models.RecommendationRecord{}, fmt.Errorf("marshal details: %w", err)
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO recommendations (user_id, type, message, details)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, rec.UserID, string(rec.Type), rec.Message, detailsJSON)

	if err := row.Scan(&rec.ID, &rec.Timestamp); err != nil {
		return models.RecommendationRecord{}, fmt.Errorf("insert recommendation: %w", err)
	}
	return rec, nil
}

// ListFor implements Ledger. Records come back in insertion order.
func (s *Store) ListFor(ctx context.Context, userID string) ([]models.RecommendationRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, type, message, created_at, details
		FROM recommendations
		WHERE user_id = $1
		ORDER BY id ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list recommendations: %w", err)
	}
	defer rows.Close()

	var records []models.RecommendationRecord
	for rows.Next() {
		rec := models.RecommendationRecord{UserID: userID}
		var recType string
		var detailsJSON []byte
		if err := rows.Scan(&rec.ID, &recType, &rec.Message, &rec.Timestamp, &detailsJSON); err != nil {
			return nil, fmt.Errorf("scan recommendation: %w", err)
		}
		rec.Type = models.ActionType(recType)
		if err := json.Unmarshal(detailsJSON, &rec.Details); err != nil {
			return nil, fmt.Errorf("decode details for record %d: %w", rec.ID, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
