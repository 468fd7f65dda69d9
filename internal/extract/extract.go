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

// Package extract pulls a candidate meeting window and topic out of an
// email body. It is a pure function: no I/O, no clock access — the
// caller supplies the reference time.
//
// Two independent pattern families are scanned: date-like tokens
// (numeric d.m.y and Russian month names) and time-like tokens (HH:MM
// and "N часов"). The first match of each family wins; no attempt is
// made to disambiguate between multiple candidates.
package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/aidekit/assistant/internal/models"
)

// topicLimit is how many leading runes of the body become the topic
// when no better source exists.
const topicLimit = 100

// defaultDuration is the assumed meeting length when the email names a
// start but no end.
const defaultDuration = time.Hour

var (
	numericDatePattern = regexp.MustCompile(`(\d{1,2})[./](\d{1,2})[./](\d{2,4})`)
	monthDatePattern   = regexp.MustCompile(`(?i)(\d{1,2})\s+(январ|феврал|март|апрел|ма[йя]|июн|июл|август|сентябр|октябр|ноябр|декабр)`)
	clockTimePattern   = regexp.MustCompile(`(\d{1,2}):(\d{2})`)
	hourPhrasePattern  = regexp.MustCompile(`(?i)(\d{1,2})\s+час(?:а|ов)?`)
)

// monthPrefixes maps a lowered Russian month-name stem to its month.
var monthPrefixes = []struct {
	stem  string
	month time.Month
}{
	{"январ", time.January},
	{"феврал", time.February},
	{"март", time.March},
	{"апрел", time.April},
	{"ма", time.May},
	{"июн", time.June},
	{"июл", time.July},
	{"август", time.August},
	{"сентябр", time.September},
	{"октябр", time.October},
	{"ноябр", time.November},
	{"декабр", time.December},
}

// Extract scans the body for a meeting window and topic. now anchors
// relative resolution: a bare time of day resolves to its next
// occurrence after now.
//
// A date without a time yields no window (Start/End nil) — the agent's
// default-window policy applies, exactly as for a body with no tokens
// at all.
func Extract(body string, now time.Time) models.MeetingCandidate {
	cand := models.MeetingCandidate{
		Topic: topicOf(body),
	}

	date, dateRaw := firstDate(body, now.Year())
	clock, clockRaw := firstTime(body)

	switch {
	case clock == nil:
		// No time of day — nothing schedulable, regardless of a date.
		return cand
	case date == nil:
		// Time only: next occurrence after now.
		start := time.Date(now.Year(), now.Month(), now.Day(),
			clock.hour, clock.minute, 0, 0, now.Location())
		if !start.After(now) {
			start = start.AddDate(0, 0, 1)
		}
		cand.Start = &start
		cand.When = clockRaw
	default:
		start := time.Date(date.year, date.month, date.day,
			clock.hour, clock.minute, 0, 0, now.Location())
		cand.Start = &start
		cand.When = dateRaw + " " + clockRaw
	}

	end := cand.Start.Add(defaultDuration)
	cand.End = &end
	return cand
}

type dateParts struct {
	year  int
	month time.Month
	day   int
}

type timeParts struct {
	hour   int
	minute int
}

// firstDate returns the first valid date token and its raw text.
// currentYear fills in month-name dates, which carry no year.
func firstDate(body string, currentYear int) (*dateParts, string) {
	if m := numericDatePattern.FindStringSubmatch(body); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if year < 100 {
			year += 2000
		}
		if validDate(day, month) {
			return &dateParts{year: year, month: time.Month(month), day: day}, m[0]
		}
	}

	if m := monthDatePattern.FindStringSubmatch(body); m != nil {
		day, _ := strconv.Atoi(m[1])
		stem := strings.ToLower(m[2])
		for _, mp := range monthPrefixes {
			if strings.HasPrefix(stem, mp.stem) {
				if day >= 1 && day <= 31 {
					return &dateParts{year: currentYear, month: mp.month, day: day}, m[0]
				}
				break
			}
		}
	}

	return nil, ""
}

// firstTime returns the first valid time-of-day token and its raw text.
func firstTime(body string) (*timeParts, string) {
	if m := clockTimePattern.FindStringSubmatch(body); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour < 24 && minute < 60 {
			return &timeParts{hour: hour, minute: minute}, m[0]
		}
	}

	if m := hourPhrasePattern.FindStringSubmatch(body); m != nil {
		hour, _ := strconv.Atoi(m[1])
		if hour < 24 {
			return &timeParts{hour: hour}, m[0]
		}
	}

	return nil, ""
}

func validDate(day, month int) bool {
	return day >= 1 && day <= 31 && month >= 1 && month <= 12
}

// topicOf returns the first topicLimit runes of the body.
func topicOf(body string) string {
	body = strings.TrimSpace(body)
	r := []rune(body)
	if len(r) <= topicLimit {
		return body
	}
	return string(r[:topicLimit])
}
