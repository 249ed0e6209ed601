package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dayflowhq/dayflow-client/internal/client/sync"
	"github.com/dayflowhq/dayflow-client/internal/version"
)

// StatusHandler handles status-related endpoints
type StatusHandler struct {
	coordinator *sync.Coordinator
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(coordinator *sync.Coordinator) *StatusHandler {
	return &StatusHandler{
		coordinator: coordinator,
	}
}

// Status returns the health of the daemon.
func (h *StatusHandler) Status(ctx *gin.Context) {
	// this is unlikely to happen, but just in case
	if h.coordinator == nil {
		ctx.PureJSON(http.StatusServiceUnavailable, &ControlPlaneError{
			ErrorCode: ErrCodeClientNotReady,
			Error:     "sync coordinator not initialized",
		})
		return
	}

	state := h.coordinator.State()

	ctx.PureJSON(http.StatusOK, &StatusResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   version.Version,
		Revision:  version.Revision,
		BuildDate: version.BuildDate,
		Online:    state.IsOnline,
		Syncing:   state.Syncing,
	})
}
