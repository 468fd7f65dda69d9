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

// Package news fetches headlines from an RSS feed and produces a short
// digest. When an LLM is configured the digest is a model summary,
// otherwise it falls back to the raw headline list.
package news

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

const summarySystemPrompt = "Ты личный ассистент. Кратко перескажи главные новости " +
	"на русском языке в 3-4 предложениях. Без вступлений и заключений."

// Headline is one feed item.
type Headline struct {
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	PublishedAt time.Time `json:"published_at,omitempty"`
}

// Digest is the /news response payload.
type Digest struct {
	Headlines []Headline `json:"headlines"`
	Summary   string     `json:"summary,omitempty"`
	FetchedAt time.Time  `json:"fetched_at"`
}

// Summarizer condenses headline text. Nil means headlines-only digests.
type Summarizer interface {
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Service fetches and summarizes the configured feed.
type Service struct {
	feedURL    string
	limit      int
	parser     *gofeed.Parser
	summarizer Summarizer
}

// NewService creates the news service. summarizer may be nil.
func NewService(feedURL string, limit int, summarizer Summarizer) *Service {
	if limit <= 0 {
		limit = 10
	}
	return &Service{
		feedURL:    feedURL,
		limit:      limit,
		parser:     gofeed.NewParser(),
		summarizer: summarizer,
	}
}

// Fetch pulls the feed and builds a digest. A summarizer failure is not
// fatal: the digest degrades to headlines only.
func (s *Service) Fetch(ctx context.Context) (*Digest, error) {
	feed, err := s.parser.ParseURLWithContext(s.feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", s.feedURL, err)
	}

	headlines := make([]Headline, 0, s.limit)
	for _, item := range feed.Items {
		if len(headlines) >= s.limit {
			break
		}
		h := Headline{Title: item.Title, Link: item.Link}
		if item.PublishedParsed != nil {
			h.PublishedAt = *item.PublishedParsed
		}
		headlines = append(headlines, h)
	}

	digest := &Digest{
		Headlines: headlines,
		FetchedAt: time.Now().UTC(),
	}

	if s.summarizer != nil && len(headlines) > 0 {
		digest.Summary = s.summarize(ctx, headlines)
	}
	return digest, nil
}

func (s *Service) summarize(ctx context.Context, headlines []Headline) string {
	titles := make([]string, len(headlines))
	for i, h := range headlines {
		titles[i] = "- " + h.Title
	}

	summary, err := s.summarizer.CompleteWithSystem(ctx, summarySystemPrompt, strings.Join(titles, "\n"))
	if err != nil {
		slog.Warn("news summarization failed", "feed", s.feedURL, "error", err)
		return ""
	}
	return strings.TrimSpace(summary)
}
