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

package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aidekit/assistant/internal/config"
	"github.com/aidekit/assistant/internal/models"
)

// fakeCalendar serves a fixed event list.
type fakeCalendar struct {
	events []models.Event
	err    error
}

func (f *fakeCalendar) Events(_ context.Context, _ string, _, _ time.Time) ([]models.Event, error) {
	return f.events, f.err
}

var hours = config.BusinessHours{StartHour: 10, EndHour: 18}

func day(hour, minute int) time.Time {
	return time.Date(2024, time.March, 15, hour, minute, 0, 0, time.UTC)
}

func TestCheckConflict(t *testing.T) {
	busy := models.Event{
		ID:      "ev1",
		Summary: "Планёрка",
		Start:   day(14, 30),
		End:     day(15, 30),
	}

	tests := []struct {
		name   string
		window models.TimeSlot
		want   bool
	}{
		{"overlap from the left", models.TimeSlot{Start: day(15, 0), End: day(16, 0)}, true},
		{"overlap from the right", models.TimeSlot{Start: day(14, 0), End: day(15, 0)}, true},
		{"window contains event", models.TimeSlot{Start: day(14, 0), End: day(16, 0)}, true},
		{"event contains window", models.TimeSlot{Start: day(14, 45), End: day(15, 15)}, true},
		{"adjacent before", models.TimeSlot{Start: day(13, 30), End: day(14, 30)}, false},
		{"adjacent after", models.TimeSlot{Start: day(15, 30), End: day(16, 30)}, false},
		{"disjoint", models.TimeSlot{Start: day(9, 0), End: day(10, 0)}, false},
	}

	r := NewResolver(&fakeCalendar{events: []models.Event{busy}}, hours)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict, err := r.CheckConflict(context.Background(), "u1", tt.window)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if verdict.HasConflict != tt.want {
				t.Errorf("HasConflict = %v, want %v", verdict.HasConflict, tt.want)
			}
			if tt.want && len(verdict.ConflictingEvents) != 1 {
				t.Errorf("ConflictingEvents = %d, want 1", len(verdict.ConflictingEvents))
			}
		})
	}
}

func TestCheckConflict_CalendarError(t *testing.T) {
	r := NewResolver(&fakeCalendar{err: errors.New("calendar unreachable")}, hours)

	_, err := r.CheckConflict(context.Background(), "u1", models.TimeSlot{Start: day(10, 0), End: day(11, 0)})
	if err == nil {
		t.Fatal("expected error, got none")
	}
}

// TestFreeSlots_EmptyCalendar: over an empty calendar and a 10:00–18:00
// business window, slots appear at exactly each hourly boundary that
// fits the duration.
func TestFreeSlots_EmptyCalendar(t *testing.T) {
	r := NewResolver(&fakeCalendar{}, hours)

	searchRange := models.TimeSlot{Start: day(0, 0), End: day(0, 0).AddDate(0, 0, 1)}
	slots, err := r.FreeSlots(context.Background(), "u1", searchRange, time.Hour, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(slots) != 8 {
		t.Fatalf("got %d slots, want 8 (10:00 through 17:00)", len(slots))
	}
	for i, slot := range slots {
		wantStart := day(10+i, 0)
		if !slot.Start.Equal(wantStart) {
			t.Errorf("slot %d start = %v, want %v", i, slot.Start, wantStart)
		}
		if !slot.End.Equal(wantStart.Add(time.Hour)) {
			t.Errorf("slot %d end = %v, want %v", i, slot.End, wantStart.Add(time.Hour))
		}
	}
}

// TestFreeSlots_LongerDuration: a two-hour meeting cannot start at
// 17:00 — the slot must fit inside business hours entirely.
func TestFreeSlots_LongerDuration(t *testing.T) {
	r := NewResolver(&fakeCalendar{}, hours)

	searchRange := models.TimeSlot{Start: day(0, 0), End: day(0, 0).AddDate(0, 0, 1)}
	slots, err := r.FreeSlots(context.Background(), "u1", searchRange, 2*time.Hour, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(slots) != 7 {
		t.Fatalf("got %d slots, want 7 (10:00 through 16:00)", len(slots))
	}
	last := slots[len(slots)-1]
	if !last.Start.Equal(day(16, 0)) {
		t.Errorf("last slot start = %v, want 16:00", last.Start)
	}
}

func TestFreeSlots_SkipsBusyHours(t *testing.T) {
	busy := []models.Event{
		{ID: "a", Start: day(10, 0), End: day(11, 0)},
		{ID: "b", Start: day(12, 30), End: day(13, 30)},
	}
	r := NewResolver(&fakeCalendar{events: busy}, hours)

	searchRange := models.TimeSlot{Start: day(0, 0), End: day(0, 0).AddDate(0, 0, 1)}
	slots, err := r.FreeSlots(context.Background(), "u1", searchRange, time.Hour, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, slot := range slots {
		if slot.Start.Equal(day(10, 0)) {
			t.Error("slot at 10:00 overlaps event a")
		}
		// 12:00 and 13:00 both overlap the 12:30–13:30 event
		if slot.Start.Equal(day(12, 0)) || slot.Start.Equal(day(13, 0)) {
			t.Errorf("slot at %v overlaps event b", slot.Start)
		}
		for _, ev := range busy {
			if slot.OverlapsEvent(ev) {
				t.Errorf("slot %v–%v overlaps event %s", slot.Start, slot.End, ev.ID)
			}
		}
	}
	if len(slots) != 5 {
		t.Errorf("got %d slots, want 5", len(slots))
	}
}

func TestFreeSlots_MaxResults(t *testing.T) {
	r := NewResolver(&fakeCalendar{}, hours)

	searchRange := models.TimeSlot{Start: day(0, 0), End: day(0, 0).AddDate(0, 0, 7)}
	slots, err := r.FreeSlots(context.Background(), "u1", searchRange, time.Hour, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(slots) != 3 {
		t.Fatalf("got %d slots, want 3", len(slots))
	}
	for i := 1; i < len(slots); i++ {
		if !slots[i-1].Start.Before(slots[i].Start) {
			t.Error("slots not in chronological order")
		}
	}
}

// TestFreeSlots_MidHourStart: a search range starting mid-hour scans
// from the next whole hour.
func TestFreeSlots_MidHourStart(t *testing.T) {
	r := NewResolver(&fakeCalendar{}, hours)

	searchRange := models.TimeSlot{Start: day(10, 20), End: day(0, 0).AddDate(0, 0, 1)}
	slots, err := r.FreeSlots(context.Background(), "u1", searchRange, time.Hour, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(slots) != 1 || !slots[0].Start.Equal(day(11, 0)) {
		t.Fatalf("first slot = %+v, want start at 11:00", slots)
	}
}

func TestFreeSlots_CalendarError(t *testing.T) {
	r := NewResolver(&fakeCalendar{err: errors.New("calendar unreachable")}, hours)

	searchRange := models.TimeSlot{Start: day(0, 0), End: day(0, 0).AddDate(0, 0, 1)}
	if _, err := r.FreeSlots(context.Background(), "u1", searchRange, time.Hour, 3); err == nil {
		t.Fatal("expected error, got none")
	}
}
