package client

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/dayflowhq/dayflow-client/internal/client/sync"
	"github.com/dayflowhq/dayflow-client/internal/flowsdk"
)

// sdkTransport adapts the SDK replay API to the coordinator's Transport.
// It decodes each action's opaque payload into the typed request for its
// kind and makes the matching call.
type sdkTransport struct {
	replay *flowsdk.ReplayAPI
}

var _ sync.Transport = (*sdkTransport)(nil)

func newSDKTransport(replay *flowsdk.ReplayAPI) *sdkTransport {
	return &sdkTransport{replay: replay}
}

func (t *sdkTransport) Replay(ctx context.Context, action *sync.PendingAction) error {
	switch action.Kind {
	case sync.KindScheduleCreate:
		var req flowsdk.ScheduleCreateRequest
		if err := json.Unmarshal(action.Payload, &req); err != nil {
			return terminalPayloadError(action, err)
		}
		_, err := t.replay.CreateSchedule(ctx, &req)
		return err

	case sync.KindScheduleUpdate:
		var req flowsdk.ScheduleUpdateRequest
		if err := json.Unmarshal(action.Payload, &req); err != nil {
			return terminalPayloadError(action, err)
		}
		_, err := t.replay.UpdateSchedule(ctx, &req)
		return err

	case sync.KindReminderCreate:
		var req flowsdk.ReminderCreateRequest
		if err := json.Unmarshal(action.Payload, &req); err != nil {
			return terminalPayloadError(action, err)
		}
		_, err := t.replay.CreateReminder(ctx, &req)
		return err

	case sync.KindProgressUpdate:
		var req flowsdk.ProgressUpdateRequest
		if err := json.Unmarshal(action.Payload, &req); err != nil {
			return terminalPayloadError(action, err)
		}
		_, err := t.replay.UpdateProgress(ctx, &req)
		return err

	case sync.KindUpload:
		var req flowsdk.AttachmentUploadRequest
		if err := json.Unmarshal(action.Payload, &req); err != nil {
			return terminalPayloadError(action, err)
		}
		_, err := t.replay.UploadAttachment(ctx, &req)
		return err

	default:
		// an unknown kind can never replay, classify it terminal
		return fmt.Errorf("replay %s: %w", action.ID,
			&flowsdk.APIError{Status: 400, Code: flowsdk.CodeInvalidRequest, Message: fmt.Sprintf("unknown action kind %q", action.Kind)})
	}
}

// terminalPayloadError marks an undecodable payload terminal: retrying a
// corrupt record cannot succeed.
func terminalPayloadError(action *sync.PendingAction, err error) error {
	return fmt.Errorf("replay %s: decode payload: %w", action.ID,
		&flowsdk.APIError{Status: 400, Code: flowsdk.CodeInvalidRequest, Message: err.Error()})
}
