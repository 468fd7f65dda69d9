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

// Package backfill replays historical mailbox messages through the
// agent pipeline. Used after onboarding a user so proposals that arrived
// before the poller started still get processed.
package backfill

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aidekit/assistant/internal/inbox"
	"github.com/aidekit/assistant/internal/mail"
	"github.com/aidekit/assistant/internal/models"
)

// Request defines the scope of a replay run.
type Request struct {
	Users []string // user IDs to backfill; empty means all registered users
	Limit int      // max messages per mailbox
}

// Result summarises a completed run.
type Result struct {
	UserResults  []UserResult
	TotalNew     int
	TotalSkipped int
	Elapsed      time.Duration
}

// UserResult tracks per-user progress.
type UserResult struct {
	UserID   string
	Enqueued int
	Skipped  int
	Errors   int
}

// Runner performs mailbox replay.
type Runner struct {
	users     inbox.UserLister
	mailbox   inbox.Mailbox
	dedup     inbox.Deduper
	publisher inbox.TaskPublisher
	userDelay time.Duration // delay between mailboxes to avoid throttling
}

// RunnerConfig holds dependencies for the replay runner.
type RunnerConfig struct {
	Users     inbox.UserLister
	Mailbox   inbox.Mailbox
	Dedup     inbox.Deduper
	Publisher inbox.TaskPublisher
	UserDelay time.Duration
}

// NewRunner creates a replay runner.
func NewRunner(cfg RunnerConfig) *Runner {
	delay := cfg.UserDelay
	if delay == 0 {
		delay = 500 * time.Millisecond
	}
	return &Runner{
		users:     cfg.Users,
		mailbox:   cfg.Mailbox,
		dedup:     cfg.Dedup,
		publisher: cfg.Publisher,
		userDelay: delay,
	}
}

// Run replays the mailboxes of all requested users.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	users := req.Users
	if len(users) == 0 {
		all, err := r.users.UserIDs()
		if err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
		users = all
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 100
	}

	slog.Info("starting mailbox replay", "users", len(users), "limit", limit)

	result := &Result{}
	for i, userID := range users {
		// Rate limit between mailboxes
		if i > 0 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(r.userDelay):
			}
		}

		ur := r.replayUser(ctx, userID, limit)
		result.UserResults = append(result.UserResults, ur)
		result.TotalNew += ur.Enqueued
		result.TotalSkipped += ur.Skipped
	}

	result.Elapsed = time.Since(start)

	slog.Info("mailbox replay complete",
		"total_new", result.TotalNew,
		"total_skipped", result.TotalSkipped,
		"elapsed", result.Elapsed,
	)

	return result, nil
}

// replayUser lists and enqueues one user's historical messages.
func (r *Runner) replayUser(ctx context.Context, userID string, limit int) UserResult {
	ur := UserResult{UserID: userID}

	summaries, err := r.mailbox.Messages(ctx, userID, limit)
	if err != nil {
		slog.Error("replay: failed to list mailbox", "user_id", userID, "error", err)
		ur.Errors++
		return ur
	}

	for _, summary := range summaries {
		if !mail.IsHumanSender(summary.From) {
			ur.Skipped++
			continue
		}

		// Shares the dedup namespace with the live poller, so replayed
		// messages never race a concurrent poll.
		isNew, err := r.dedup.IsNew(ctx, userID, summary.ID)
		if err != nil {
			slog.Warn("replay: dedup check failed",
				"user_id", userID,
				"message_id", summary.ID,
				"error", err,
			)
			ur.Errors++
			continue
		}
		if !isNew {
			ur.Skipped++
			continue
		}

		msg, err := r.mailbox.Message(ctx, userID, summary.ID)
		if err != nil {
			slog.Warn("replay: fetch message failed",
				"user_id", userID,
				"message_id", summary.ID,
				"error", err,
			)
			ur.Errors++
			continue
		}

		email := models.InboundEmail{
			MessageID: msg.ID,
			From:      msg.From,
			Subject:   msg.Subject,
			Body:      msg.Body,
			UserID:    userID,
		}
		if err := r.publisher.Publish(ctx, email); err != nil {
			slog.Warn("replay: publish failed",
				"user_id", userID,
				"message_id", msg.ID,
				"error", err,
			)
			ur.Errors++
			continue
		}
		ur.Enqueued++
	}

	slog.Info("user replay complete",
		"user_id", userID,
		"enqueued", ur.Enqueued,
		"skipped", ur.Skipped,
		"errors", ur.Errors,
	)

	return ur
}
