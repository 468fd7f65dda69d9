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

package news

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Новости</title>
    <item><title>Курс рубля вырос</title><link>https://news.example/1</link></item>
    <item><title>Открыта новая станция метро</title><link>https://news.example/2</link></item>
    <item><title>Запущен новый спутник</title><link>https://news.example/3</link></item>
  </channel>
</rss>`

func feedServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(testFeed))
	}))
	t.Cleanup(srv.Close)
	return srv
}

type fakeSummarizer struct {
	reply string
	err   error
	got   string
}

func (f *fakeSummarizer) CompleteWithSystem(_ context.Context, _, userPrompt string) (string, error) {
	f.got = userPrompt
	return f.reply, f.err
}

func TestFetch_HeadlinesAndSummary(t *testing.T) {
	srv := feedServer(t)
	sum := &fakeSummarizer{reply: "Рубль вырос, метро расширяется, спутник на орбите."}

	digest, err := NewService(srv.URL, 10, sum).Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if len(digest.Headlines) != 3 {
		t.Fatalf("got %d headlines, want 3", len(digest.Headlines))
	}
	if digest.Headlines[0].Title != "Курс рубля вырос" {
		t.Errorf("first headline = %q", digest.Headlines[0].Title)
	}
	if digest.Summary != sum.reply {
		t.Errorf("summary = %q, want model reply", digest.Summary)
	}
	if !strings.Contains(sum.got, "Курс рубля вырос") {
		t.Errorf("summarizer prompt missing headline: %q", sum.got)
	}
}

func TestFetch_LimitApplies(t *testing.T) {
	srv := feedServer(t)

	digest, err := NewService(srv.URL, 2, nil).Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(digest.Headlines) != 2 {
		t.Errorf("got %d headlines, want 2", len(digest.Headlines))
	}
}

func TestFetch_SummarizerFailureDegrades(t *testing.T) {
	srv := feedServer(t)
	sum := &fakeSummarizer{err: errors.New("model unavailable")}

	digest, err := NewService(srv.URL, 10, sum).Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if digest.Summary != "" {
		t.Errorf("summary = %q, want empty on summarizer failure", digest.Summary)
	}
	if len(digest.Headlines) != 3 {
		t.Errorf("headlines must survive a summarizer failure, got %d", len(digest.Headlines))
	}
}

func TestFetch_FeedErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := NewService(srv.URL, 10, nil).Fetch(context.Background()); err == nil {
		t.Fatal("expected fetch error, got none")
	}
}
