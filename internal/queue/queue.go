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

// Package queue moves inbound emails from the inbox poller to the agent
// workers over a Redis list. The poller LPUSHes tasks, workers BRPOP
// them, so multiple worker processes share one queue without extra
// coordination.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/aidekit/assistant/internal/models"
)

// Task is the unit of work on the queue: one inbound email to run
// through the agent pipeline.
type Task struct {
	ID         string              `json:"id"`
	Email      models.InboundEmail `json:"email"`
	EnqueuedAt time.Time           `json:"enqueued_at"`
}

// Publisher pushes email tasks onto the Redis queue.
type Publisher struct {
	rdb       *redis.Client
	queueName string
}

// NewPublisher creates a publisher targeting the specified queue.
func NewPublisher(rdb *redis.Client, queueName string) *Publisher {
	return &Publisher{
		rdb:       rdb,
		queueName: queueName,
	}
}

// Publish serialises the email as a task and LPUSHes it.
func (p *Publisher) Publish(ctx context.Context, email models.InboundEmail) error {
	task := Task{
		ID:         uuid.New().String(),
		Email:      email,
		EnqueuedAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}

	if err := p.rdb.LPush(ctx, p.queueName, payload).Err(); err != nil {
		return fmt.Errorf("redis LPUSH: %w", err)
	}

	slog.Info("published email task",
		"task_id", task.ID,
		"message_id", email.MessageID,
		"user_id", email.UserID,
		"queue", p.queueName,
	)

	return nil
}

// Ping checks the Redis connection.
func (p *Publisher) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return p.rdb.Ping(ctx).Err()
}

// Consumer pops email tasks from the Redis queue.
type Consumer struct {
	rdb       *redis.Client
	queueName string
}

// NewConsumer creates a consumer reading the specified queue.
func NewConsumer(rdb *redis.Client, queueName string) *Consumer {
	return &Consumer{
		rdb:       rdb,
		queueName: queueName,
	}
}

// blockTimeout bounds each BRPOP so the consumer notices context
// cancellation between polls.
const blockTimeout = 5 * time.Second

// Next blocks until a task is available or the context is cancelled.
// A nil task with a nil error means the poll timed out; call again.
func (c *Consumer) Next(ctx context.Context) (*Task, error) {
	res, err := c.rdb.BRPop(ctx, blockTimeout, c.queueName).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis BRPOP: %w", err)
	}

	// BRPOP returns [key, value].
	if len(res) != 2 {
		return nil, fmt.Errorf("redis BRPOP: unexpected reply of %d elements", len(res))
	}

	var task Task
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		return nil, fmt.Errorf("unmarshal task: %w", err)
	}
	return &task, nil
}
