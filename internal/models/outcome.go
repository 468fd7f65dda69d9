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

// ActionType tags the terminal branch the agent took for one email.
type ActionType string

const (
	ActionNoAction            ActionType = "no_action"
	ActionMeetingCreated      ActionType = "meeting_created"
	ActionAlternativeProposed ActionType = "alternative_proposed"
	ActionError               ActionType = "error"
)

// ActionOutcome is the single terminal result of processing one
// InboundEmail. Exactly one is produced per Process call.
//
//   - ActionNoAction: the email is not a meeting proposal. No fields set.
//   - ActionMeetingCreated: EventID and EmailSent are meaningful.
//   - ActionAlternativeProposed: Alternatives (possibly empty) and
//     EmailSent are meaningful.
//   - ActionError: Message carries the failure reason.
type ActionOutcome struct {
	Action       ActionType `json:"action"`
	Message      string     `json:"message"`
	EventID      string     `json:"event_id,omitempty"`
	EmailSent    bool       `json:"email_sent,omitempty"`
	Alternatives []TimeSlot `json:"alternatives,omitempty"`
}

// RecommendationRecord is one immutable audit entry describing an agent
// decision. Owned exclusively by the ledger; never mutated or deleted
// once written. IDs are monotonic per user in append order.
type RecommendationRecord struct {
	ID        int64             `json:"id"`
	UserID    string            `json:"user_id"`
	Type      ActionType        `json:"type"`
	Message   string            `json:"message"`
	Timestamp time.Time         `json:"timestamp"`
	Details   map[string]string `json:"details,omitempty"`
}
