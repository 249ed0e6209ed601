package sync

import (
	"time"

	json "github.com/goccy/go-json"
)

// ActionKind tags a queued mutation with the replay call that confirms it.
type ActionKind string

const (
	KindUpload         ActionKind = "upload"
	KindScheduleCreate ActionKind = "schedule-create"
	KindScheduleUpdate ActionKind = "schedule-update"
	KindReminderCreate ActionKind = "reminder-create"
	KindProgressUpdate ActionKind = "progress-update"
)

// ActionStatus is the lifecycle state of a pending action.
type ActionStatus string

const (
	StatusQueued          ActionStatus = "queued"
	StatusInFlight        ActionStatus = "in-flight"
	StatusFailedRetryable ActionStatus = "failed-retryable"
	StatusFailedTerminal  ActionStatus = "failed-terminal"
)

// PendingAction is a durable record of one client mutation not yet confirmed
// by the server. The payload is opaque and kind-specific; it must be
// serializable - no live handles ever go in the queue.
type PendingAction struct {
	ID          string          `json:"id"`
	Kind        ActionKind      `json:"kind"`
	Payload     json.RawMessage `json:"payload"`
	CreatedAt   time.Time       `json:"created_at"`
	Attempts    int             `json:"attempts"`
	MaxRetries  int             `json:"max_retries"`
	Status      ActionStatus    `json:"status"`
	Prioritized bool            `json:"prioritized,omitempty"`
}

// Eligible reports whether a drain pass should replay this action.
func (a *PendingAction) Eligible() bool {
	return a.Status == StatusQueued || a.Status == StatusFailedRetryable
}

// Terminal reports whether the action can never succeed without user action.
func (a *PendingAction) Terminal() bool {
	return a.Status == StatusFailedTerminal
}

func (a *PendingAction) clone() *PendingAction {
	cp := *a
	if a.Payload != nil {
		cp.Payload = make(json.RawMessage, len(a.Payload))
		copy(cp.Payload, a.Payload)
	}
	return &cp
}
