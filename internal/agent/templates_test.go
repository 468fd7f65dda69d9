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
	"strings"
	"testing"
	"time"

	"github.com/aidekit/assistant/internal/config"
	"github.com/aidekit/assistant/internal/models"
)

func defaultTemplates(t *testing.T) *Templates {
	t.Helper()
	tpl, err := NewTemplates(config.Templates{
		Accept:         config.DefaultAcceptTemplate,
		Alternatives:   config.DefaultAlternativesTemplate,
		NoAvailability: config.DefaultNoAvailabilityTemplate,
	})
	if err != nil {
		t.Fatalf("templates: %v", err)
	}
	return tpl
}

func TestTemplates_Accept(t *testing.T) {
	body, err := defaultTemplates(t).Accept("20.03.2024 14:30")
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if !strings.Contains(body, "20.03.2024 14:30") {
		t.Errorf("accept body %q does not quote the time phrase", body)
	}
}

func TestTemplates_AlternativesListsSlots(t *testing.T) {
	slots := []models.TimeSlot{
		{
			Start: time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC),
			End:   time.Date(2024, time.March, 15, 11, 0, 0, 0, time.UTC),
		},
		{
			Start: time.Date(2024, time.March, 15, 11, 0, 0, 0, time.UTC),
			End:   time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC),
		},
	}

	body, err := defaultTemplates(t).Alternatives(slots)
	if err != nil {
		t.Fatalf("alternatives: %v", err)
	}
	for _, want := range []string{"- 15.03.2024 10:00", "- 15.03.2024 11:00"} {
		if !strings.Contains(body, want) {
			t.Errorf("alternatives body %q missing %q", body, want)
		}
	}
}

func TestTemplates_NewRejectsBrokenSource(t *testing.T) {
	_, err := NewTemplates(config.Templates{
		Accept:       "{{.When",
		Alternatives: config.DefaultAlternativesTemplate,
	})
	if err == nil {
		t.Fatal("expected parse error for a broken template")
	}
}

func TestFormatSlotAndWindow(t *testing.T) {
	slot := models.TimeSlot{
		Start: time.Date(2024, time.March, 16, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2024, time.March, 16, 11, 0, 0, 0, time.UTC),
	}

	if got := FormatSlot(slot); got != "16.03.2024 10:00" {
		t.Errorf("FormatSlot = %q", got)
	}
	if got := formatWindow(slot); got != "16.03.2024 10:00–11:00" {
		t.Errorf("formatWindow = %q", got)
	}
}
