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

package inbox

import (
	"context"
	"log/slog"

	"github.com/aidekit/assistant/internal/models"
	"github.com/aidekit/assistant/internal/queue"
)

// EmailProcessor runs one email through the pipeline.
// Implemented by agent.Agent.
type EmailProcessor interface {
	Process(ctx context.Context, email models.InboundEmail) models.ActionOutcome
}

// TaskConsumer pops tasks off the queue. Implemented by queue.Consumer.
type TaskConsumer interface {
	Next(ctx context.Context) (*queue.Task, error)
}

// Worker drains the task queue into the agent.
type Worker struct {
	consumer  TaskConsumer
	processor EmailProcessor
}

// NewWorker creates a queue worker.
func NewWorker(consumer TaskConsumer, processor EmailProcessor) *Worker {
	return &Worker{consumer: consumer, processor: processor}
}

// Run consumes tasks until the context is cancelled. Consumer errors are
// logged and the loop continues; a poisoned task never stops the worker.
func (w *Worker) Run(ctx context.Context) {
	slog.Info("inbox worker starting")

	for {
		if ctx.Err() != nil {
			slog.Info("inbox worker stopping")
			return
		}

		task, err := w.consumer.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				slog.Info("inbox worker stopping")
				return
			}
			slog.Error("failed to consume task", "error", err)
			continue
		}
		if task == nil {
			// poll timeout, try again
			continue
		}

		outcome := w.processor.Process(ctx, task.Email)
		slog.Info("processed email task",
			"task_id", task.ID,
			"message_id", task.Email.MessageID,
			"user_id", task.Email.UserID,
			"action", outcome.Action,
		)
	}
}
