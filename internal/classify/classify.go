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

// Package classify decides whether an email proposes a meeting.
//
// Two implementations exist: a keyword heuristic and an LLM-backed
// classifier that falls back to the heuristic on any failure. Both
// satisfy the same contract: classification never errors to the caller.
package classify

import (
	"context"
	"strings"
)

// Classifier reports whether an email body proposes a meeting.
type Classifier interface {
	Classify(ctx context.Context, body string) bool
}

// defaultKeywords is the meeting-intent vocabulary matched case-insensitively.
var defaultKeywords = []string{
	"встреча",
	"встретиться",
	"собрание",
	"встречаемся",
	"appointment",
	"meeting",
}

// Keyword matches a fixed vocabulary against the email body.
type Keyword struct {
	keywords []string
}

// NewKeyword creates a keyword classifier. With no arguments it uses the
// default meeting vocabulary.
func NewKeyword(keywords ...string) *Keyword {
	if len(keywords) == 0 {
		keywords = defaultKeywords
	}
	lowered := make([]string, len(keywords))
	for i, kw := range keywords {
		lowered[i] = strings.ToLower(kw)
	}
	return &Keyword{keywords: lowered}
}

// Classify returns true if any vocabulary word occurs in the body.
func (k *Keyword) Classify(_ context.Context, body string) bool {
	lower := strings.ToLower(body)
	for _, kw := range k.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
