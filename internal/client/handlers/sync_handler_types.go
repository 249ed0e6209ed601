package handlers

import (
	"time"

	"github.com/dayflowhq/dayflow-client/internal/client/sync"
)

type PendingActionInfo struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	Status      string    `json:"status"`
	Attempts    int       `json:"attempts"`
	MaxRetries  int       `json:"maxRetries"`
	Prioritized bool      `json:"prioritized,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type SyncSummary struct {
	Queued   int `json:"queued"`
	InFlight int `json:"inFlight"`
	Retrying int `json:"retrying"`
	Failed   int `json:"failed"`
}

type SyncStatusResponse struct {
	Online       bool        `json:"online"`
	Syncing      bool        `json:"syncing"`
	LastSyncTime time.Time   `json:"lastSyncTime"`
	Summary      SyncSummary `json:"summary"`
}

type SyncPendingResponse struct {
	Actions []PendingActionInfo `json:"actions"`
}

func toPendingActionInfo(a *sync.PendingAction) PendingActionInfo {
	return PendingActionInfo{
		ID:          a.ID,
		Kind:        string(a.Kind),
		Status:      string(a.Status),
		Attempts:    a.Attempts,
		MaxRetries:  a.MaxRetries,
		Prioritized: a.Prioritized,
		CreatedAt:   a.CreatedAt,
	}
}
