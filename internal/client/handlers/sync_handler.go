package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dayflowhq/dayflow-client/internal/client/sync"
)

type SyncHandler struct {
	coordinator *sync.Coordinator
}

func NewSyncHandler(coordinator *sync.Coordinator) *SyncHandler {
	return &SyncHandler{coordinator: coordinator}
}

// Status returns the current sync snapshot and a per-state summary of the
// pending queue.
func (h *SyncHandler) Status(c *gin.Context) {
	state := h.coordinator.State()

	var summary SyncSummary
	for _, a := range state.PendingActions {
		switch a.Status {
		case sync.StatusQueued:
			summary.Queued++
		case sync.StatusInFlight:
			summary.InFlight++
		case sync.StatusFailedRetryable:
			summary.Retrying++
		case sync.StatusFailedTerminal:
			summary.Failed++
		}
	}

	c.JSON(http.StatusOK, SyncStatusResponse{
		Online:       state.IsOnline,
		Syncing:      state.Syncing,
		LastSyncTime: state.LastSyncTime,
		Summary:      summary,
	})
}

// Now triggers an immediate drain pass. The pass runs in the background, but
// the drain lock is claimed before responding: of two concurrent triggers
// exactly one gets 200, the other 409.
func (h *SyncHandler) Now(c *gin.Context) {
	if err := h.coordinator.DrainAsync(context.Background()); err != nil {
		AbortWithError(c, http.StatusConflict, ErrCodeSyncBusy, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "sync triggered"})
}

// Pending lists every queued action in replay order.
func (h *SyncHandler) Pending(c *gin.Context) {
	actions := h.coordinator.List()

	infos := make([]PendingActionInfo, 0, len(actions))
	for _, a := range actions {
		infos = append(infos, toPendingActionInfo(a))
	}

	c.JSON(http.StatusOK, SyncPendingResponse{Actions: infos})
}

// Prioritize moves an action to the front of the next drain pass.
func (h *SyncHandler) Prioritize(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		AbortWithError(c, http.StatusBadRequest, ErrCodeBadRequest, errors.New("action id is required"))
		return
	}

	if err := h.coordinator.Reprioritize(id); err != nil {
		switch {
		case errors.Is(err, sync.ErrActionNotFound):
			AbortWithError(c, http.StatusNotFound, ErrCodeNotFound, err)
		default:
			AbortWithError(c, http.StatusInternalServerError, ErrCodeStorageFailure, err)
		}
		return
	}

	c.JSON(http.StatusOK, ControlPlaneResponse{Code: CodeOk})
}

// Dismiss discards a failed-terminal action. Actions that can still succeed
// are refused; they leave the queue only through a confirmed replay.
func (h *SyncHandler) Dismiss(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		AbortWithError(c, http.StatusBadRequest, ErrCodeBadRequest, errors.New("action id is required"))
		return
	}

	if err := h.coordinator.Remove(id); err != nil {
		switch {
		case errors.Is(err, sync.ErrActionNotFound):
			AbortWithError(c, http.StatusNotFound, ErrCodeNotFound, err)
		case errors.Is(err, sync.ErrActionNotTerminal):
			AbortWithError(c, http.StatusConflict, ErrCodeActionNotDone, err)
		default:
			AbortWithError(c, http.StatusInternalServerError, ErrCodeStorageFailure, err)
		}
		return
	}

	c.JSON(http.StatusOK, ControlPlaneResponse{Code: CodeOk})
}

// Events is a server-sent events stream of sync state changes.
func (h *SyncHandler) Events(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	updates := make(chan sync.State, 8)
	unsubscribe := h.coordinator.Subscribe(func(s sync.State) {
		select {
		case updates <- s:
		default:
			// slow consumer, drop the intermediate snapshot
		}
	})
	defer unsubscribe()

	ctx := c.Request.Context()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case state, ok := <-updates:
			if !ok {
				return false
			}
			c.SSEvent("sync", SyncStatusResponse{
				Online:       state.IsOnline,
				Syncing:      state.Syncing,
				LastSyncTime: state.LastSyncTime,
			})
			return true
		}
	})
}
