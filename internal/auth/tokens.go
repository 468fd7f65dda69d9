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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"
)

const providerKeyPrefix = "assistant:provider:"

// ErrNoProviderToken is returned when a user has not linked the provider.
var ErrNoProviderToken = errors.New("no provider token for user")

// ProviderTokens stores per-user OAuth tokens for the mail provider in
// Redis, keyed by user ID. The key expires with the token so stale
// grants age out on their own.
type ProviderTokens struct {
	rdb *redis.Client
}

// NewProviderTokens creates the token store.
func NewProviderTokens(rdb *redis.Client) *ProviderTokens {
	return &ProviderTokens{rdb: rdb}
}

// Save stores the user's provider token.
func (p *ProviderTokens) Save(ctx context.Context, userID string, token *oauth2.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("marshal provider token: %w", err)
	}

	ttl := time.Duration(0)
	if !token.Expiry.IsZero() {
		ttl = time.Until(token.Expiry)
		if ttl <= 0 {
			return fmt.Errorf("provider token already expired")
		}
	}

	key := providerKeyPrefix + userID
	if err := p.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("store provider token: %w", err)
	}
	return nil
}

// Get fetches the user's provider token.
func (p *ProviderTokens) Get(ctx context.Context, userID string) (*oauth2.Token, error) {
	data, err := p.rdb.Get(ctx, providerKeyPrefix+userID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoProviderToken
	}
	if err != nil {
		return nil, fmt.Errorf("fetch provider token: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("parse provider token: %w", err)
	}
	return &token, nil
}
