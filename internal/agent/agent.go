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

// Package agent drives the email-to-calendar pipeline: classify an
// inbound email, extract a meeting window, check the calendar, then
// either create the meeting and confirm, counter-propose free slots,
// or do nothing — and record the decision in the ledger.
//
// Side effects are strictly ordered per email: conflict check, then
// the calendar mutation (if any), then the notification email, then
// the ledger append. Every terminal branch except NoAction appends a
// ledger record. The agent never retries on its own; one Process call
// executes at most once and replays are the caller's concern.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aidekit/assistant/internal/classify"
	"github.com/aidekit/assistant/internal/config"
	"github.com/aidekit/assistant/internal/extract"
	"github.com/aidekit/assistant/internal/ledger"
	"github.com/aidekit/assistant/internal/models"
	"github.com/aidekit/assistant/internal/schedule"
)

// CalendarService is the calendar collaborator: the read side feeds the
// conflict resolver, the write side creates confirmed meetings.
type CalendarService interface {
	Events(ctx context.Context, userID string, from, to time.Time) ([]models.Event, error)
	CreateEvent(ctx context.Context, userID, summary, description string, start, end time.Time) (string, error)
}

// EmailSender delivers the agent's replies.
type EmailSender interface {
	Send(ctx context.Context, userID, to, subject, body string) error
}

// Config wires the agent's collaborators and policy.
type Config struct {
	Classifier classify.Classifier
	Resolver   *schedule.Resolver
	Calendar   CalendarService
	Email      EmailSender
	Ledger     ledger.Ledger
	Templates  *Templates

	Hours           config.BusinessHours
	SlotDuration    time.Duration // default meeting length
	Lookahead       time.Duration // horizon for alternative slots
	MaxAlternatives int

	// Now is the clock; tests pin it. Defaults to time.Now.
	Now func() time.Time
}

// Agent processes inbound emails one at a time per user.
type Agent struct {
	classifier classify.Classifier
	resolver   *schedule.Resolver
	calendar   CalendarService
	email      EmailSender
	ledger     ledger.Ledger
	templates  *Templates

	hours           config.BusinessHours
	slotDuration    time.Duration
	lookahead       time.Duration
	maxAlternatives int

	now   func() time.Time
	locks *userLocks
}

// New creates the agent. Zero policy values get the platform defaults:
// one-hour slots, a 7-day lookahead, 3 alternatives.
func New(cfg Config) *Agent {
	if cfg.SlotDuration <= 0 {
		cfg.SlotDuration = time.Hour
	}
	if cfg.Lookahead <= 0 {
		cfg.Lookahead = 7 * 24 * time.Hour
	}
	if cfg.MaxAlternatives <= 0 {
		cfg.MaxAlternatives = 3
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Agent{
		classifier:      cfg.Classifier,
		resolver:        cfg.Resolver,
		calendar:        cfg.Calendar,
		email:           cfg.Email,
		ledger:          cfg.Ledger,
		templates:       cfg.Templates,
		hours:           cfg.Hours,
		slotDuration:    cfg.SlotDuration,
		lookahead:       cfg.Lookahead,
		maxAlternatives: cfg.MaxAlternatives,
		now:             cfg.Now,
		locks:           newUserLocks(),
	}
}

// Process runs one email through the pipeline and returns its terminal
// outcome. Deterministic given identical inputs and collaborator
// responses.
func (a *Agent) Process(ctx context.Context, email models.InboundEmail) models.ActionOutcome {
	if !a.classifier.Classify(ctx, email.Body) {
		// Not a proposal: no side effects, no ledger entry.
		return models.ActionOutcome{
			Action:  models.ActionNoAction,
			Message: "Письмо не содержит предложения о встрече",
		}
	}

	// Same-user pipelines are serialized across the check-then-create
	// sequence; different users proceed in parallel.
	unlock := a.locks.lock(email.UserID)
	defer unlock()

	now := a.now()
	cand := extract.Extract(email.Body, now)

	topic := cand.Topic
	if topic == "" {
		topic = email.Subject
	}

	window := a.windowFor(cand, now)
	when := cand.When
	if when == "" {
		when = formatWindow(window)
	}

	verdict, err := a.resolver.CheckConflict(ctx, email.UserID, window)
	if err != nil {
		return a.fail(ctx, email, "Календарь недоступен, предложение не обработано", err)
	}

	if verdict.HasConflict {
		return a.proposeAlternatives(ctx, email, topic, now)
	}
	return a.createMeeting(ctx, email, topic, when, window)
}

// windowFor resolves the candidate window. Emails that propose a
// meeting without naming a concrete time get the default window: the
// next calendar day at business opening, one slot long.
func (a *Agent) windowFor(cand models.MeetingCandidate, now time.Time) models.TimeSlot {
	if cand.Start != nil && cand.End != nil {
		return models.TimeSlot{Start: *cand.Start, End: *cand.End}
	}

	next := now.AddDate(0, 0, 1)
	start := time.Date(next.Year(), next.Month(), next.Day(),
		a.hours.StartHour, 0, 0, 0, now.Location())
	return models.TimeSlot{Start: start, End: start.Add(a.slotDuration)}
}

// createMeeting is the free-window branch: create the event, send the
// confirmation, record the outcome. A failed confirmation email does
// not roll the event back — the outcome stays MeetingCreated with
// EmailSent=false.
func (a *Agent) createMeeting(ctx context.Context, email models.InboundEmail, topic, when string, window models.TimeSlot) models.ActionOutcome {
	description := fmt.Sprintf("Встреча предложена в письме от %s", email.From)

	eventID, err := a.calendar.CreateEvent(ctx, email.UserID, topic, description, window.Start, window.End)
	if err != nil {
		return a.fail(ctx, email, "Не удалось создать событие в календаре", err)
	}

	emailSent := a.reply(ctx, email, mustRender(a.templates.Accept(when)))

	outcome := models.ActionOutcome{
		Action:    models.ActionMeetingCreated,
		Message:   fmt.Sprintf("Встреча «%s» создана и ответ отправлен", topic),
		EventID:   eventID,
		EmailSent: emailSent,
	}
	a.record(ctx, email, outcome, map[string]string{
		"event_id": eventID,
		"email_to": email.From,
		"window":   formatWindow(window),
	})
	return outcome
}

// proposeAlternatives is the conflict branch: look for free slots over
// the lookahead horizon and counter-propose them. Zero free slots is
// still AlternativesProposed — the reply then explains that nothing
// was available, it never degrades to NoAction.
func (a *Agent) proposeAlternatives(ctx context.Context, email models.InboundEmail, topic string, now time.Time) models.ActionOutcome {
	searchRange := models.TimeSlot{Start: now, End: now.Add(a.lookahead)}
	slots, err := a.resolver.FreeSlots(ctx, email.UserID, searchRange, a.slotDuration, a.maxAlternatives)
	if err != nil {
		return a.fail(ctx, email, "Не удалось подобрать альтернативные слоты", err)
	}

	var body string
	if len(slots) == 0 {
		body = a.templates.NoAvailability()
	} else {
		body = mustRender(a.templates.Alternatives(slots))
	}
	emailSent := a.reply(ctx, email, body)

	outcome := models.ActionOutcome{
		Action:       models.ActionAlternativeProposed,
		Message:      fmt.Sprintf("Предложены альтернативные слоты для встречи «%s»", topic),
		EmailSent:    emailSent,
		Alternatives: slots,
	}

	formatted := make([]string, len(slots))
	for i, slot := range slots {
		formatted[i] = FormatSlot(slot)
	}
	a.record(ctx, email, outcome, map[string]string{
		"email_to": email.From,
		"slots":    strings.Join(formatted, ", "),
	})
	return outcome
}

// reply sends the notification email. Send failures are logged, never
// fatal: the calendar action already happened.
func (a *Agent) reply(ctx context.Context, email models.InboundEmail, body string) bool {
	subject := "Re: " + email.Subject
	if err := a.email.Send(ctx, email.UserID, email.From, subject, body); err != nil {
		slog.Warn("reply email failed",
			"message_id", email.MessageID,
			"user_id", email.UserID,
			"to", email.From,
			"error", err,
		)
		return false
	}
	return true
}

// fail records an error outcome. No retry here — the calling boundary
// owns retries.
func (a *Agent) fail(ctx context.Context, email models.InboundEmail, reason string, err error) models.ActionOutcome {
	slog.Error("agent pipeline failed",
		"message_id", email.MessageID,
		"user_id", email.UserID,
		"reason", reason,
		"error", err,
	)

	outcome := models.ActionOutcome{
		Action:  models.ActionError,
		Message: reason,
	}
	a.record(ctx, email, outcome, map[string]string{"error": err.Error()})
	return outcome
}

// record appends the outcome to the ledger. Append failures are logged:
// the decision already executed and is reported to the caller as-is.
func (a *Agent) record(ctx context.Context, email models.InboundEmail, outcome models.ActionOutcome, details map[string]string) {
	details["message_id"] = email.MessageID
	rec := models.RecommendationRecord{
		UserID:  email.UserID,
		Type:    outcome.Action,
		Message: outcome.Message,
		Details: details,
	}
	if _, err := a.ledger.Append(ctx, rec); err != nil {
		slog.Error("ledger append failed",
			"user_id", email.UserID,
			"type", outcome.Action,
			"error", err,
		)
	}
}

// mustRender tolerates template failures: parsing happened at startup,
// execution over plain strings cannot realistically fail, but a broken
// custom template must not take the pipeline down.
func mustRender(body string, err error) string {
	if err != nil {
		slog.Error("template rendering failed", "error", err)
		return ""
	}
	return body
}
