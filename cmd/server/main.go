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

// AideKit Assistant — API and pipeline service
//
// Entry point for the assistant service. It:
//  1. Loads configuration from config.yaml and the environment
//  2. Connects to PostgreSQL (recommendation ledger) and Redis (dedup, queue)
//  3. Builds the agent pipeline: classifier, extractor, conflict resolver
//  4. Starts the inbox poller and queue worker
//  5. Serves the HTTP API (auth, analysis, recommendations, news)
//  6. Handles graceful shutdown on SIGTERM/SIGINT
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/aidekit/assistant/internal/agent"
	"github.com/aidekit/assistant/internal/auth"
	"github.com/aidekit/assistant/internal/calendar"
	"github.com/aidekit/assistant/internal/classify"
	"github.com/aidekit/assistant/internal/config"
	"github.com/aidekit/assistant/internal/dedup"
	"github.com/aidekit/assistant/internal/inbox"
	"github.com/aidekit/assistant/internal/ledger"
	"github.com/aidekit/assistant/internal/llm"
	"github.com/aidekit/assistant/internal/mail"
	"github.com/aidekit/assistant/internal/news"
	"github.com/aidekit/assistant/internal/queue"
	"github.com/aidekit/assistant/internal/schedule"
	"github.com/aidekit/assistant/internal/server"
)

func main() {
	// Local development convenience; in containers the env is injected.
	_ = godotenv.Load()

	// Structured JSON logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("starting assistant service")

	// --- Load Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"port", cfg.Port,
		"poll_interval", cfg.PollInterval,
		"business_hours", cfg.Hours,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Connect to PostgreSQL ---
	pgPool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create Postgres pool", "error", err)
		os.Exit(1)
	}
	defer pgPool.Close()

	if err := pgPool.Ping(ctx); err != nil {
		slog.Error("failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	slog.Info("connected to PostgreSQL")

	// --- Recommendation Ledger (Postgres) ---
	recLedger, err := ledger.NewStore(ctx, pgPool)
	if err != nil {
		slog.Error("failed to initialise recommendation ledger", "error", err)
		os.Exit(1)
	}

	// --- Connect to Redis ---
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		slog.Error("invalid REDIS_URL", "error", err)
		os.Exit(1)
	}
	rdb := redis.NewClient(opt)

	publisher := queue.NewPublisher(rdb, cfg.TasksQueue)
	if err := publisher.Ping(ctx); err != nil {
		slog.Error("failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	slog.Info("connected to Redis")

	filter := dedup.NewFilter(rdb)
	consumer := queue.NewConsumer(rdb, cfg.TasksQueue)

	// --- Users and Tokens ---
	users, err := auth.NewFileStore(cfg.UsersFile)
	if err != nil {
		slog.Error("failed to open user store", "file", cfg.UsersFile, "error", err)
		os.Exit(1)
	}
	tokens := auth.NewManager(cfg.JWTSecret, cfg.TokenTTL)

	// --- Provider Linking (optional) ---
	var linker server.ProviderLinker
	if cfg.YandexClientID != "" {
		providerTokens := auth.NewProviderTokens(rdb)
		linker = auth.NewYandexLinker(cfg.YandexClientID, cfg.YandexClientSecret, cfg.YandexRedirectURL, providerTokens)
		slog.Info("yandex provider linking enabled")
	}

	// --- Classifier ---
	keyword := classify.NewKeyword()
	var classifier classify.Classifier = keyword
	var llmClient *llm.Client
	if cfg.OpenAIKey != "" {
		llmClient = llm.NewClient(cfg.OpenAIKey, cfg.OpenAIModel)
		classifier = classify.NewRemote(llmClient, keyword, cfg.OpenAITimeout)
		slog.Info("remote classifier enabled", "model", cfg.OpenAIModel)
	}

	// --- Collaborator Clients ---
	calendarClient := calendar.NewClient(cfg.CalendarServiceURL, tokens, cfg.CollaboratorTimeout)
	mailClient := mail.NewClient(cfg.EmailServiceURL, tokens, cfg.CollaboratorTimeout)

	// --- Agent Pipeline ---
	templates, err := agent.NewTemplates(cfg.Templates)
	if err != nil {
		slog.Error("failed to parse reply templates", "error", err)
		os.Exit(1)
	}

	assistant := agent.New(agent.Config{
		Classifier:      classifier,
		Resolver:        schedule.NewResolver(calendarClient, cfg.Hours),
		Calendar:        calendarClient,
		Email:           mailClient,
		Ledger:          recLedger,
		Templates:       templates,
		Hours:           cfg.Hours,
		SlotDuration:    cfg.SlotDuration,
		Lookahead:       cfg.Lookahead,
		MaxAlternatives: cfg.MaxAlternatives,
	})

	// --- News ---
	var newsSource server.NewsSource
	if cfg.NewsFeedURL != "" {
		var summarizer news.Summarizer
		if llmClient != nil {
			summarizer = llmClient
		}
		newsSource = news.NewService(cfg.NewsFeedURL, cfg.NewsLimit, summarizer)
	}

	// --- Inbox Pipeline ---
	poller := inbox.NewPoller(users, mailClient, filter, publisher, cfg.PollInterval, cfg.FetchLimit)
	worker := inbox.NewWorker(consumer, assistant)
	go poller.Run(ctx)
	go worker.Run(ctx)

	// --- HTTP API ---
	handler := server.NewHandler(server.HandlerConfig{
		Users:    users,
		Tokens:   tokens,
		Linker:   linker,
		Analyzer: assistant,
		Ledger:   recLedger,
		News:     newsSource,
	})
	ready, err := server.Serve(ctx, cfg.Port, handler)
	if err != nil {
		slog.Error("failed to start api server", "error", err)
		os.Exit(1)
	}
	<-ready

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	sig := <-sigCh

	slog.Info("received shutdown signal", "signal", sig)
	cancel() // Stop poller, worker, and the API server

	rdb.Close()
	pgPool.Close()

	slog.Info("assistant service stopped")
}
