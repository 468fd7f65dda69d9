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

// AideKit Assistant — Mailbox Replay Command
//
// Standalone CLI tool that replays historical mailbox messages through
// the agent pipeline. Intended for seeding data after onboarding users.
//
// Usage:
//
//	go run ./cmd/backfill/ [--users id1,id2] [--limit 100]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/aidekit/assistant/internal/auth"
	"github.com/aidekit/assistant/internal/backfill"
	"github.com/aidekit/assistant/internal/config"
	"github.com/aidekit/assistant/internal/dedup"
	"github.com/aidekit/assistant/internal/mail"
	"github.com/aidekit/assistant/internal/queue"
)

func main() {
	_ = godotenv.Load()

	// Structured JSON logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// --- CLI Flags ---
	usersFlag := flag.String("users", "", "Comma-separated list of user IDs (optional; empty = all registered users)")
	limitFlag := flag.Int("limit", 100, "Max messages to replay per mailbox")
	flag.Parse()

	// --- Load Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Connect to Redis ---
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		slog.Error("invalid REDIS_URL", "error", err)
		os.Exit(1)
	}
	rdb := redis.NewClient(opt)
	defer rdb.Close()

	publisher := queue.NewPublisher(rdb, cfg.TasksQueue)
	if err := publisher.Ping(ctx); err != nil {
		slog.Error("failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	slog.Info("connected to Redis")

	filter := dedup.NewFilter(rdb)

	// --- Users and Tokens ---
	users, err := auth.NewFileStore(cfg.UsersFile)
	if err != nil {
		slog.Error("failed to open user store", "file", cfg.UsersFile, "error", err)
		os.Exit(1)
	}
	tokens := auth.NewManager(cfg.JWTSecret, cfg.TokenTTL)

	mailClient := mail.NewClient(cfg.EmailServiceURL, tokens, cfg.CollaboratorTimeout)

	// --- Run Replay ---
	runner := backfill.NewRunner(backfill.RunnerConfig{
		Users:     users,
		Mailbox:   mailClient,
		Dedup:     filter,
		Publisher: publisher,
	})

	req := backfill.Request{Limit: *limitFlag}
	if *usersFlag != "" {
		req.Users = strings.Split(*usersFlag, ",")
	}

	result, err := runner.Run(ctx, req)
	if err != nil {
		slog.Error("mailbox replay failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("\nReplay complete in %s\n", result.Elapsed.Round(time.Millisecond))
	fmt.Printf("  enqueued: %d\n", result.TotalNew)
	fmt.Printf("  skipped:  %d\n", result.TotalSkipped)
	for _, ur := range result.UserResults {
		fmt.Printf("  %s: enqueued=%d skipped=%d errors=%d\n", ur.UserID, ur.Enqueued, ur.Skipped, ur.Errors)
	}
}
