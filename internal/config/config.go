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

// Package config loads configuration from config.yaml and environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// BusinessHours is the daily window in which meetings may be scheduled.
// Hours are local, [StartHour, EndHour).
type BusinessHours struct {
	StartHour int
	EndHour   int
}

// Templates holds the reply bodies the agent sends. All three are Go
// text/template sources; see agent.NewTemplates for the available fields.
type Templates struct {
	Accept         string
	Alternatives   string
	NoAvailability string
}

// Config holds all configuration for the assistant service.
type Config struct {
	Port int

	// Storage
	DatabaseURL string
	RedisURL    string
	TasksQueue  string

	// Auth
	JWTSecret string
	TokenTTL  time.Duration
	UsersFile string

	// Yandex OAuth (provider linking for mail and calendar)
	YandexClientID     string
	YandexClientSecret string
	YandexRedirectURL  string

	// Collaborator services
	CalendarServiceURL  string
	EmailServiceURL     string
	CollaboratorTimeout time.Duration

	// LLM (remote classifier and news summaries; empty key disables)
	OpenAIKey     string
	OpenAIModel   string
	OpenAITimeout time.Duration

	// Scheduling policy
	Hours           BusinessHours
	SlotDuration    time.Duration
	Lookahead       time.Duration
	MaxAlternatives int

	// Inbox polling
	PollInterval time.Duration
	FetchLimit   int

	// News
	NewsFeedURL string
	NewsLimit   int

	Templates Templates
}

// rawConfig mirrors the YAML structure for unmarshalling.
type rawConfig struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`
	Redis struct {
		URL    string `yaml:"url"`
		Queues struct {
			Tasks string `yaml:"tasks"`
		} `yaml:"queues"`
	} `yaml:"redis"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
		TokenTTL  string `yaml:"token_ttl"`
		UsersFile string `yaml:"users_file"`
	} `yaml:"auth"`
	Yandex struct {
		ClientID     string `yaml:"client_id"`
		ClientSecret string `yaml:"client_secret"`
		RedirectURL  string `yaml:"redirect_url"`
	} `yaml:"yandex"`
	Collaborators struct {
		CalendarURL string `yaml:"calendar_url"`
		EmailURL    string `yaml:"email_url"`
		Timeout     string `yaml:"timeout"`
	} `yaml:"collaborators"`
	LLM struct {
		APIKey  string `yaml:"api_key"`
		Model   string `yaml:"model"`
		Timeout string `yaml:"timeout"`
	} `yaml:"llm"`
	Scheduling struct {
		StartHour       int `yaml:"start_hour"`
		EndHour         int `yaml:"end_hour"`
		SlotMinutes     int `yaml:"slot_minutes"`
		LookaheadDays   int `yaml:"lookahead_days"`
		MaxAlternatives int `yaml:"max_alternatives"`
	} `yaml:"scheduling"`
	Inbox struct {
		PollInterval string `yaml:"poll_interval"`
		FetchLimit   int    `yaml:"fetch_limit"`
	} `yaml:"inbox"`
	News struct {
		FeedURL string `yaml:"feed_url"`
		Limit   int    `yaml:"limit"`
	} `yaml:"news"`
	Templates struct {
		Accept         string `yaml:"accept"`
		Alternatives   string `yaml:"alternatives"`
		NoAvailability string `yaml:"no_availability"`
	} `yaml:"templates"`
}

// Default reply templates. The accept body quotes the time phrase from
// the original email; the alternatives body lists proposed slots.
const (
	DefaultAcceptTemplate = "Спасибо за предложение! Я подтверждаю встречу на {{.When}}."

	DefaultAlternativesTemplate = "Спасибо за предложение! К сожалению, в предложенное время я занят. " +
		"Могу предложить следующие альтернативы:\n{{range .Slots}}- {{.}}\n{{end}}"

	DefaultNoAvailabilityTemplate = "Спасибо за предложение! К сожалению, в ближайшие дни у меня нет " +
		"свободного времени. Предложите, пожалуйста, другую неделю."
)

// Load reads configuration from config.yaml (with env var expansion) and
// environment variables for overrides. A missing config file is not an
// error: every setting has an env var or a default.
func Load() (*Config, error) {
	configPath := envOrDefault("CONFIG_PATH", "config.yaml")

	var raw rawConfig
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		// Expand ${VAR} references in the YAML
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
			return nil, fmt.Errorf("parse config YAML: %w", err)
		}
	case os.IsNotExist(err):
		// env-only configuration
	default:
		return nil, fmt.Errorf("read config file %s: %w", configPath, err)
	}

	cfg := &Config{
		Port: firstNonZero(raw.Server.Port, envOrDefaultInt("PORT", 8080)),

		DatabaseURL: firstNonEmpty(raw.Database.URL, envOrDefault("DATABASE_URL", "postgres://localhost:5432/assistant")),
		RedisURL:    firstNonEmpty(raw.Redis.URL, envOrDefault("REDIS_URL", "redis://localhost:6379/0")),
		TasksQueue:  firstNonEmpty(raw.Redis.Queues.Tasks, envOrDefault("TASKS_QUEUE", "assistant:tasks")),

		JWTSecret: firstNonEmpty(raw.Auth.JWTSecret, os.Getenv("JWT_SECRET")),
		TokenTTL:  durationOrDefault(raw.Auth.TokenTTL, envOrDefaultDuration("TOKEN_TTL", 24*time.Hour)),
		UsersFile: firstNonEmpty(raw.Auth.UsersFile, envOrDefault("USERS_FILE", "data/users.json")),

		YandexClientID:     firstNonEmpty(raw.Yandex.ClientID, os.Getenv("YANDEX_CLIENT_ID")),
		YandexClientSecret: firstNonEmpty(raw.Yandex.ClientSecret, os.Getenv("YANDEX_CLIENT_SECRET")),
		YandexRedirectURL:  firstNonEmpty(raw.Yandex.RedirectURL, envOrDefault("YANDEX_REDIRECT_URL", "http://localhost:8080/auth/yandex/callback")),

		CalendarServiceURL:  firstNonEmpty(raw.Collaborators.CalendarURL, envOrDefault("CALENDAR_SERVICE_URL", "http://calendar-service:8002")),
		EmailServiceURL:     firstNonEmpty(raw.Collaborators.EmailURL, envOrDefault("EMAIL_SERVICE_URL", "http://email-service:8003")),
		CollaboratorTimeout: durationOrDefault(raw.Collaborators.Timeout, envOrDefaultDuration("COLLABORATOR_TIMEOUT", 10*time.Second)),

		OpenAIKey:     firstNonEmpty(raw.LLM.APIKey, os.Getenv("OPENAI_API_KEY")),
		OpenAIModel:   firstNonEmpty(raw.LLM.Model, envOrDefault("OPENAI_MODEL", "gpt-4o-mini")),
		OpenAITimeout: durationOrDefault(raw.LLM.Timeout, envOrDefaultDuration("OPENAI_TIMEOUT", 30*time.Second)),

		Hours: BusinessHours{
			StartHour: firstNonZero(raw.Scheduling.StartHour, envOrDefaultInt("BUSINESS_HOURS_START", 10)),
			EndHour:   firstNonZero(raw.Scheduling.EndHour, envOrDefaultInt("BUSINESS_HOURS_END", 18)),
		},
		SlotDuration:    time.Duration(firstNonZero(raw.Scheduling.SlotMinutes, envOrDefaultInt("SLOT_MINUTES", 60))) * time.Minute,
		Lookahead:       time.Duration(firstNonZero(raw.Scheduling.LookaheadDays, envOrDefaultInt("LOOKAHEAD_DAYS", 7))) * 24 * time.Hour,
		MaxAlternatives: firstNonZero(raw.Scheduling.MaxAlternatives, envOrDefaultInt("MAX_ALTERNATIVES", 3)),

		PollInterval: durationOrDefault(raw.Inbox.PollInterval, envOrDefaultDuration("POLL_INTERVAL", 60*time.Second)),
		FetchLimit:   firstNonZero(raw.Inbox.FetchLimit, envOrDefaultInt("FETCH_LIMIT", 50)),

		NewsFeedURL: firstNonEmpty(raw.News.FeedURL, envOrDefault("NEWS_FEED_URL", "https://www.rbc.ru/rss/news")),
		NewsLimit:   firstNonZero(raw.News.Limit, envOrDefaultInt("NEWS_LIMIT", 10)),

		Templates: Templates{
			Accept:         firstNonEmpty(raw.Templates.Accept, DefaultAcceptTemplate),
			Alternatives:   firstNonEmpty(raw.Templates.Alternatives, DefaultAlternativesTemplate),
			NoAvailability: firstNonEmpty(raw.Templates.NoAvailability, DefaultNoAvailabilityTemplate),
		},
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.Hours.StartHour < 0 || cfg.Hours.EndHour > 24 || cfg.Hours.StartHour >= cfg.Hours.EndHour {
		return nil, fmt.Errorf("invalid business hours %d–%d", cfg.Hours.StartHour, cfg.Hours.EndHour)
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envOrDefaultDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func durationOrDefault(raw string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(strings.TrimSpace(raw)); err == nil && d > 0 {
		return d
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func firstNonZero(values ...int) int {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}
