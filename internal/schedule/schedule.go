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

// Package schedule checks candidate meeting windows against the user's
// calendar and finds free alternative slots.
//
// The free-slot search is a greedy hourly scan: it can miss tighter
// intervals between the hour marks. That is an accepted trade-off —
// the horizon and granularity are small.
package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/aidekit/assistant/internal/config"
	"github.com/aidekit/assistant/internal/models"
)

// step is the scan granularity of the free-slot search.
const step = time.Hour

// CalendarView is the read-only calendar access the resolver needs.
type CalendarView interface {
	Events(ctx context.Context, userID string, from, to time.Time) ([]models.Event, error)
}

// Resolver answers conflict and free-slot queries for one calendar.
type Resolver struct {
	calendar CalendarView
	hours    config.BusinessHours
}

// NewResolver creates a resolver over the given calendar view and
// business-hours policy.
func NewResolver(calendar CalendarView, hours config.BusinessHours) *Resolver {
	return &Resolver{
		calendar: calendar,
		hours:    hours,
	}
}

// CheckConflict reports whether any existing event overlaps the window.
// Any overlap counts, not containment. It does not search for
// alternative slots; that is FreeSlots, and the caller decides whether
// to run it.
func (r *Resolver) CheckConflict(ctx context.Context, userID string, window models.TimeSlot) (models.ConflictVerdict, error) {
	events, err := r.calendar.Events(ctx, userID, window.Start, window.End)
	if err != nil {
		return models.ConflictVerdict{}, fmt.Errorf("fetch events: %w", err)
	}

	var verdict models.ConflictVerdict
	for _, ev := range events {
		if window.OverlapsEvent(ev) {
			verdict.HasConflict = true
			verdict.ConflictingEvents = append(verdict.ConflictingEvents, ev)
		}
	}
	return verdict, nil
}

// FreeSlots walks the search range at hourly granularity and returns up
// to max slots of the given duration, in chronological order. A slot
// qualifies only if it lies entirely inside the business-hours window
// of its day and overlaps no existing event.
func (r *Resolver) FreeSlots(ctx context.Context, userID string, searchRange models.TimeSlot, duration time.Duration, max int) ([]models.TimeSlot, error) {
	if max <= 0 || duration <= 0 || !searchRange.Start.Before(searchRange.End) {
		return nil, nil
	}

	events, err := r.calendar.Events(ctx, userID, searchRange.Start, searchRange.End)
	if err != nil {
		return nil, fmt.Errorf("fetch events: %w", err)
	}

	var slots []models.TimeSlot
	for cursor := ceilHour(searchRange.Start); cursor.Before(searchRange.End); cursor = cursor.Add(step) {
		slot := models.TimeSlot{Start: cursor, End: cursor.Add(duration)}
		if slot.End.After(searchRange.End) {
			break
		}
		if !r.insideBusinessHours(slot) {
			continue
		}
		if overlapsAny(slot, events) {
			continue
		}
		slots = append(slots, slot)
		if len(slots) == max {
			break
		}
	}
	return slots, nil
}

// insideBusinessHours reports whether the whole slot fits in the
// business-hours window of its starting day.
func (r *Resolver) insideBusinessHours(slot models.TimeSlot) bool {
	if slot.Start.Hour() < r.hours.StartHour || slot.Start.Hour() >= r.hours.EndHour {
		return false
	}
	y, m, d := slot.Start.Date()
	dayEnd := time.Date(y, m, d, r.hours.EndHour, 0, 0, 0, slot.Start.Location())
	return !slot.End.After(dayEnd)
}

func overlapsAny(slot models.TimeSlot, events []models.Event) bool {
	for _, ev := range events {
		if slot.OverlapsEvent(ev) {
			return true
		}
	}
	return false
}

// ceilHour rounds t up to the next whole hour (identity if already on
// the hour).
func ceilHour(t time.Time) time.Time {
	truncated := t.Truncate(step)
	if truncated.Equal(t) {
		return t
	}
	return truncated.Add(step)
}
