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

// Package inbox moves email from users' mailboxes into the agent
// pipeline. The poller lists each mailbox on a timer, drops automated
// senders and already-seen messages, and enqueues the rest; the worker
// drains the queue and runs each email through the agent.
package inbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/aidekit/assistant/internal/mail"
	"github.com/aidekit/assistant/internal/models"
)

// UserLister enumerates the accounts whose mailboxes are polled.
// Implemented by auth.FileStore.
type UserLister interface {
	UserIDs() ([]string, error)
}

// Mailbox is the read side of the email service.
// Implemented by mail.Client.
type Mailbox interface {
	Messages(ctx context.Context, userID string, limit int) ([]mail.MessageSummary, error)
	Message(ctx context.Context, userID, messageID string) (*mail.Message, error)
}

// Deduper marks messages as seen. Implemented by dedup.Filter.
type Deduper interface {
	IsNew(ctx context.Context, userID, messageID string) (bool, error)
}

// TaskPublisher enqueues emails for the workers.
// Implemented by queue.Publisher.
type TaskPublisher interface {
	Publish(ctx context.Context, email models.InboundEmail) error
}

// Poller periodically checks every user's mailbox for new messages.
type Poller struct {
	users      UserLister
	mailbox    Mailbox
	dedup      Deduper
	publisher  TaskPublisher
	interval   time.Duration
	fetchLimit int
}

// NewPoller creates a poller that checks mailboxes at the given interval,
// fetching at most fetchLimit messages per mailbox per poll.
func NewPoller(users UserLister, mailbox Mailbox, dedup Deduper, publisher TaskPublisher, interval time.Duration, fetchLimit int) *Poller {
	return &Poller{
		users:      users,
		mailbox:    mailbox,
		dedup:      dedup,
		publisher:  publisher,
		interval:   interval,
		fetchLimit: fetchLimit,
	}
}

// Run starts the polling loop. It blocks until the context is cancelled.
func (p *Poller) Run(ctx context.Context) {
	slog.Info("inbox poller starting",
		"interval", p.interval,
		"fetch_limit", p.fetchLimit,
	)

	// Do an initial poll immediately
	p.poll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("inbox poller stopping")
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

// poll sweeps every mailbox once.
func (p *Poller) poll(ctx context.Context) {
	userIDs, err := p.users.UserIDs()
	if err != nil {
		slog.Error("failed to list users", "error", err)
		return
	}

	for _, userID := range userIDs {
		if ctx.Err() != nil {
			return
		}
		p.pollMailbox(ctx, userID)
	}
}

// pollMailbox lists one mailbox and enqueues new human-sent messages.
func (p *Poller) pollMailbox(ctx context.Context, userID string) {
	summaries, err := p.mailbox.Messages(ctx, userID, p.fetchLimit)
	if err != nil {
		slog.Error("failed to list mailbox", "user_id", userID, "error", err)
		return
	}

	enqueued := 0
	for _, summary := range summaries {
		// Automated senders never reach the agent.
		if !mail.IsHumanSender(summary.From) {
			continue
		}

		isNew, err := p.dedup.IsNew(ctx, userID, summary.ID)
		if err != nil {
			slog.Error("dedup check failed",
				"user_id", userID,
				"message_id", summary.ID,
				"error", err,
			)
			continue
		}
		if !isNew {
			continue
		}

		msg, err := p.mailbox.Message(ctx, userID, summary.ID)
		if err != nil {
			slog.Error("failed to fetch message",
				"user_id", userID,
				"message_id", summary.ID,
				"error", err,
			)
			continue
		}

		email := models.InboundEmail{
			MessageID: msg.ID,
			From:      msg.From,
			Subject:   msg.Subject,
			Body:      msg.Body,
			UserID:    userID,
		}
		if err := p.publisher.Publish(ctx, email); err != nil {
			slog.Error("failed to enqueue email",
				"user_id", userID,
				"message_id", msg.ID,
				"error", err,
			)
			continue
		}
		enqueued++
	}

	if enqueued > 0 {
		slog.Info("enqueued new emails", "user_id", userID, "count", enqueued)
	}
}
