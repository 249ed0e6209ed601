package flowsdk

import (
	"context"
	"fmt"
	"time"

	"resty.dev/v3"
)

const (
	v1Schedules   = "/api/v1/schedules"
	v1ScheduleId  = "/api/v1/schedules/{id}"
	v1Reminders   = "/api/v1/reminders"
	v1Progress    = "/api/v1/progress"
	v1Attachments = "/api/v1/attachments"

	// every replay call carries its own timeout; expiry counts as retryable
	replayCallTimeout = 30 * time.Second
)

// ReplayAPI replays queued offline mutations against the server. One call
// per action kind; errors come back classified so the coordinator can tell
// retryable from terminal failures.
type ReplayAPI struct {
	client *resty.Client
}

func newReplayAPI(client *resty.Client) *ReplayAPI {
	return &ReplayAPI{
		client: client,
	}
}

func (r *ReplayAPI) CreateSchedule(ctx context.Context, req *ScheduleCreateRequest) (*ReplayResponse, error) {
	var resp ReplayResponse
	var apiErr APIError

	ctx, cancel := context.WithTimeout(ctx, replayCallTimeout)
	defer cancel()

	res, err := r.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		SetError(&apiErr).
		Post(v1Schedules)

	if err := replayError(res, err, &apiErr, "create schedule"); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *ReplayAPI) UpdateSchedule(ctx context.Context, req *ScheduleUpdateRequest) (*ReplayResponse, error) {
	var resp ReplayResponse
	var apiErr APIError

	ctx, cancel := context.WithTimeout(ctx, replayCallTimeout)
	defer cancel()

	res, err := r.client.R().
		SetContext(ctx).
		SetPathParam("id", req.ScheduleId).
		SetBody(req).
		SetResult(&resp).
		SetError(&apiErr).
		Patch(v1ScheduleId)

	if err := replayError(res, err, &apiErr, "update schedule"); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *ReplayAPI) CreateReminder(ctx context.Context, req *ReminderCreateRequest) (*ReplayResponse, error) {
	var resp ReplayResponse
	var apiErr APIError

	ctx, cancel := context.WithTimeout(ctx, replayCallTimeout)
	defer cancel()

	res, err := r.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		SetError(&apiErr).
		Post(v1Reminders)

	if err := replayError(res, err, &apiErr, "create reminder"); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *ReplayAPI) UpdateProgress(ctx context.Context, req *ProgressUpdateRequest) (*ReplayResponse, error) {
	var resp ReplayResponse
	var apiErr APIError

	ctx, cancel := context.WithTimeout(ctx, replayCallTimeout)
	defer cancel()

	res, err := r.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		SetError(&apiErr).
		Put(v1Progress)

	if err := replayError(res, err, &apiErr, "update progress"); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *ReplayAPI) UploadAttachment(ctx context.Context, req *AttachmentUploadRequest) (*ReplayResponse, error) {
	var resp ReplayResponse
	var apiErr APIError

	ctx, cancel := context.WithTimeout(ctx, replayCallTimeout)
	defer cancel()

	res, err := r.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		SetError(&apiErr).
		Post(v1Attachments)

	if err := replayError(res, err, &apiErr, "upload attachment"); err != nil {
		return nil, err
	}
	return &resp, nil
}

// replayError folds the transport error and the API error body into one
// classified error.
func replayError(res *resty.Response, requestErr error, apiErr *APIError, operation string) error {
	if requestErr != nil {
		return fmt.Errorf("http request error: %s: %w", operation, requestErr)
	}

	// got a response, but api returned an error
	if res.IsError() {
		apiErr.Status = res.StatusCode()
		if apiErr.Code == "" {
			apiErr.Code = CodeUnknownError
			apiErr.Message = res.String()
		}
		return fmt.Errorf("%s: %w", operation, apiErr)
	}

	return nil
}
