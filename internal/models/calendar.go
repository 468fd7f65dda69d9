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

package models

import "time"

// Event is a calendar event as reported by the calendar service.
type Event struct {
	ID          string    `json:"id"`
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
}

// TimeSlot is a half-open time window [Start, End). Invariant: Start < End.
type TimeSlot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether two slots share any instant. Any overlap
// counts, not containment.
func (s TimeSlot) Overlaps(other TimeSlot) bool {
	return s.Start.Before(other.End) && other.Start.Before(s.End)
}

// OverlapsEvent reports whether the slot overlaps a calendar event.
func (s TimeSlot) OverlapsEvent(ev Event) bool {
	return s.Overlaps(TimeSlot{Start: ev.Start, End: ev.End})
}

// MeetingCandidate is what the extractor pulls out of an email body.
// Start and End may be nil: the email proposed a meeting but named no
// concrete window, in which case the agent substitutes its default.
type MeetingCandidate struct {
	Topic string
	Start *time.Time
	End   *time.Time

	// When is the raw date/time phrase as it appeared in the email,
	// used verbatim in the confirmation reply.
	When string
}

// ConflictVerdict is the result of checking a candidate window against
// the user's calendar. Alternative slots are a separate query; the
// caller decides whether to search for them.
type ConflictVerdict struct {
	HasConflict       bool    `json:"has_conflict"`
	ConflictingEvents []Event `json:"conflicting_events,omitempty"`
}
