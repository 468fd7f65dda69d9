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

package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aidekit/assistant/internal/llm"
)

const classifySystemPrompt = `Ты — классификатор писем. Определи, является ли письмо предложением о встрече.
Ответь строго в формате JSON:
{"is_meeting_proposal": true/false}`

// Completer is the LLM capability the remote classifier needs.
// Implemented by llm.Client.
type Completer interface {
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Remote asks an LLM whether the email proposes a meeting. On any
// failure or timeout it runs the keyword heuristic instead — a plain
// two-branch fallback, the remote path is never retried.
type Remote struct {
	completer Completer
	fallback  *Keyword
	timeout   time.Duration
}

// NewRemote creates an LLM-backed classifier with a keyword fallback.
func NewRemote(completer Completer, fallback *Keyword, timeout time.Duration) *Remote {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Remote{
		completer: completer,
		fallback:  fallback,
		timeout:   timeout,
	}
}

// Classify implements Classifier. It never errors to the caller.
func (r *Remote) Classify(ctx context.Context, body string) bool {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	verdict, err := r.ask(ctx, body)
	if err != nil {
		slog.Warn("remote classification failed, using keyword heuristic", "error", err)
		return r.fallback.Classify(ctx, body)
	}
	return verdict
}

func (r *Remote) ask(ctx context.Context, body string) (bool, error) {
	resp, err := r.completer.CompleteWithSystem(ctx, classifySystemPrompt, llm.Truncate(body, 500))
	if err != nil {
		return false, err
	}

	var result struct {
		IsMeetingProposal bool `json:"is_meeting_proposal"`
	}
	if err := json.Unmarshal([]byte(llm.StripFences(resp)), &result); err != nil {
		return false, fmt.Errorf("parse classification response: %w", err)
	}
	return result.IsMeetingProposal, nil
}
