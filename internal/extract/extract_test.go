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

package extract

import (
	"strings"
	"testing"
	"time"
)

// reference time for all tests: Friday 2024-03-15 10:00 local.
var ref = time.Date(2024, time.March, 15, 10, 0, 0, 0, time.Local)

func TestExtract_ClockTime(t *testing.T) {
	cand := Extract("Давайте встретимся в 15:00 обсудить бюджет", ref)

	if cand.Start == nil || cand.End == nil {
		t.Fatal("expected a window, got none")
	}
	want := time.Date(2024, time.March, 15, 15, 0, 0, 0, time.Local)
	if !cand.Start.Equal(want) {
		t.Errorf("Start = %v, want %v", cand.Start, want)
	}
	if !cand.End.Equal(want.Add(time.Hour)) {
		t.Errorf("End = %v, want %v", cand.End, want.Add(time.Hour))
	}
	if cand.When != "15:00" {
		t.Errorf("When = %q, want %q", cand.When, "15:00")
	}
}

// TestExtract_PastTimeRollsToTomorrow: a bare time of day earlier than
// the reference resolves to the next occurrence.
func TestExtract_PastTimeRollsToTomorrow(t *testing.T) {
	cand := Extract("Позвони мне в 09:30", ref)

	if cand.Start == nil {
		t.Fatal("expected a window, got none")
	}
	want := time.Date(2024, time.March, 16, 9, 30, 0, 0, time.Local)
	if !cand.Start.Equal(want) {
		t.Errorf("Start = %v, want %v", cand.Start, want)
	}
}

func TestExtract_NumericDateWithTime(t *testing.T) {
	cand := Extract("Предлагаю встречу 20.03.2024 в 14:30 в офисе", ref)

	if cand.Start == nil {
		t.Fatal("expected a window, got none")
	}
	want := time.Date(2024, time.March, 20, 14, 30, 0, 0, time.Local)
	if !cand.Start.Equal(want) {
		t.Errorf("Start = %v, want %v", cand.Start, want)
	}
	if cand.When != "20.03.2024 14:30" {
		t.Errorf("When = %q, want %q", cand.When, "20.03.2024 14:30")
	}
}

func TestExtract_TwoDigitYear(t *testing.T) {
	cand := Extract("Встреча 20.03.24 в 14:30", ref)

	if cand.Start == nil {
		t.Fatal("expected a window, got none")
	}
	if got := cand.Start.Year(); got != 2024 {
		t.Errorf("year = %d, want 2024", got)
	}
}

func TestExtract_MonthNameDate(t *testing.T) {
	tests := []struct {
		body string
		want time.Time
	}{
		{
			body: "Собрание 5 марта в 12:00",
			want: time.Date(2024, time.March, 5, 12, 0, 0, 0, time.Local),
		},
		{
			body: "Встречаемся 7 мая в 11:15",
			want: time.Date(2024, time.May, 7, 11, 15, 0, 0, time.Local),
		},
		{
			body: "Встреча 1 декабря в 16:00",
			want: time.Date(2024, time.December, 1, 16, 0, 0, 0, time.Local),
		},
	}

	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			cand := Extract(tt.body, ref)
			if cand.Start == nil {
				t.Fatal("expected a window, got none")
			}
			if !cand.Start.Equal(tt.want) {
				t.Errorf("Start = %v, want %v", cand.Start, tt.want)
			}
		})
	}
}

func TestExtract_HourPhrase(t *testing.T) {
	cand := Extract("Давайте встретимся в 15 часов", ref)

	if cand.Start == nil {
		t.Fatal("expected a window, got none")
	}
	want := time.Date(2024, time.March, 15, 15, 0, 0, 0, time.Local)
	if !cand.Start.Equal(want) {
		t.Errorf("Start = %v, want %v", cand.Start, want)
	}
}

// TestExtract_FirstMatchWins: multiple time tokens — the first one is
// taken, deliberately without disambiguation.
func TestExtract_FirstMatchWins(t *testing.T) {
	cand := Extract("Можем в 11:00 или в 16:00", ref)

	if cand.Start == nil {
		t.Fatal("expected a window, got none")
	}
	if got := cand.Start.Hour(); got != 11 {
		t.Errorf("hour = %d, want 11", got)
	}
}

// TestExtract_NoWindow: bodies with no schedulable tokens yield a
// candidate without a window. A date alone is not schedulable either.
func TestExtract_NoWindow(t *testing.T) {
	tests := []string{
		"Добро пожаловать в наш сервис",
		"",
		"Встреча 20.03.2024 — время уточним позже", // date, no time
	}

	for _, body := range tests {
		t.Run(body, func(t *testing.T) {
			cand := Extract(body, ref)
			if cand.Start != nil || cand.End != nil {
				t.Errorf("expected no window for %q, got %v–%v", body, cand.Start, cand.End)
			}
		})
	}
}

// TestExtract_InvalidTokensIgnored: out-of-range values don't produce
// windows.
func TestExtract_InvalidTokensIgnored(t *testing.T) {
	cand := Extract("счёт 99:99 не время", ref)
	if cand.Start != nil {
		t.Errorf("expected no window, got %v", cand.Start)
	}
}

func TestExtract_Topic(t *testing.T) {
	short := "Короткое письмо про встречу"
	if got := Extract(short, ref).Topic; got != short {
		t.Errorf("Topic = %q, want full body", got)
	}

	long := strings.Repeat("х", 250)
	got := Extract(long, ref).Topic
	if len([]rune(got)) != 100 {
		t.Errorf("Topic length = %d runes, want 100", len([]rune(got)))
	}
}
