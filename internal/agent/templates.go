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

package agent

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/aidekit/assistant/internal/config"
	"github.com/aidekit/assistant/internal/models"
)

// slotLayout is how slots are rendered in reply emails.
const slotLayout = "02.01.2006 15:04"

// Templates renders the agent's reply bodies.
//
// The accept template sees {{.When}} — the time phrase being confirmed.
// The alternatives template sees {{.Slots}} — pre-formatted slot strings.
// The no-availability body is static.
type Templates struct {
	accept         *template.Template
	alternatives   *template.Template
	noAvailability string
}

// NewTemplates parses the configured template sources.
func NewTemplates(cfg config.Templates) (*Templates, error) {
	accept, err := template.New("accept").Parse(cfg.Accept)
	if err != nil {
		return nil, fmt.Errorf("parse accept template: %w", err)
	}
	alternatives, err := template.New("alternatives").Parse(cfg.Alternatives)
	if err != nil {
		return nil, fmt.Errorf("parse alternatives template: %w", err)
	}
	return &Templates{
		accept:         accept,
		alternatives:   alternatives,
		noAvailability: cfg.NoAvailability,
	}, nil
}

// Accept renders the meeting confirmation body.
func (t *Templates) Accept(when string) (string, error) {
	var sb strings.Builder
	err := t.accept.Execute(&sb, struct{ When string }{When: when})
	if err != nil {
		return "", fmt.Errorf("render accept template: %w", err)
	}
	return sb.String(), nil
}

// Alternatives renders the counter-proposal body listing free slots.
func (t *Templates) Alternatives(slots []models.TimeSlot) (string, error) {
	formatted := make([]string, len(slots))
	for i, slot := range slots {
		formatted[i] = FormatSlot(slot)
	}

	var sb strings.Builder
	err := t.alternatives.Execute(&sb, struct{ Slots []string }{Slots: formatted})
	if err != nil {
		return "", fmt.Errorf("render alternatives template: %w", err)
	}
	return sb.String(), nil
}

// NoAvailability returns the body sent when no free slot exists in the
// lookahead horizon.
func (t *Templates) NoAvailability() string {
	return t.noAvailability
}

// FormatSlot renders a slot start for human-readable output.
func FormatSlot(slot models.TimeSlot) string {
	return slot.Start.Format(slotLayout)
}

// formatWindow renders a full window, used when the reply confirms a
// default window rather than a phrase quoted from the email.
func formatWindow(window models.TimeSlot) string {
	return fmt.Sprintf("%s–%s", window.Start.Format(slotLayout), window.End.Format("15:04"))
}
