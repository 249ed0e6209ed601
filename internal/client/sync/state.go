package sync

import "time"

// State is the UI-visible sync status snapshot. Multiple surfaces observe
// one authoritative copy through Coordinator.Subscribe; nothing mutates it
// except the coordinator itself.
type State struct {
	IsOnline       bool             `json:"is_online"`
	Syncing        bool             `json:"syncing"`
	LastSyncTime   time.Time        `json:"last_sync_time"`
	PendingActions []*PendingAction `json:"pending_actions"`
}

// PendingCount returns the number of not-yet-confirmed actions.
func (s State) PendingCount() int {
	return len(s.PendingActions)
}

// FailedCount returns the number of actions needing user attention.
func (s State) FailedCount() int {
	n := 0
	for _, a := range s.PendingActions {
		if a.Terminal() {
			n++
		}
	}
	return n
}
