package flowsdk

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// sdk common
	ErrNoServerURL  = errors.New("sdk: server url missing")
	ErrNoCredential = errors.New("sdk: credential missing")

	// events
	ErrEventsClosed = errors.New("events: channel closed")
)

const (
	// Generic request/server errors
	CodeInvalidRequest = "E_INVALID_REQUEST" // bad or invalid request
	CodeRateLimited    = "E_RATE_LIMITED"    // rate limit exceeded
	CodeInternalError  = "E_INTERNAL_ERROR"  // internal server error
	CodeAccessDenied   = "E_ACCESS_DENIED"   // access denied
	CodeUnknownError   = "E_UNKNOWN_ERR"     // unknown error

	// Schedule errors
	CodeScheduleNotFound = "E_SCHEDULE_NOT_FOUND" // the schedule could not be found
	CodeScheduleConflict = "E_SCHEDULE_CONFLICT"  // the schedule was rejected by validation

	// Reminder errors
	CodeReminderInvalid = "E_REMINDER_INVALID" // the reminder payload failed validation

	// Attachment errors
	CodeAttachmentTooLarge = "E_ATTACHMENT_TOO_LARGE" // the upload exceeds server limits
)

// APIError represents a structured Dayflow API error. Status carries the
// HTTP status code the error arrived with; it drives retry classification.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: %d %s - %s", e.Status, e.Code, e.Message)
}

// Retryable reports whether a later attempt of the same request can succeed.
// Server-side transients (5xx) and throttling are retryable; everything the
// server rejected outright (4xx) is terminal.
func (e *APIError) Retryable() bool {
	if e.Status >= http.StatusInternalServerError {
		return true
	}
	return e.Status == http.StatusTooManyRequests
}

// IsRetryable classifies a replay failure. Transport-level failures (dial
// errors, timeouts, context deadlines) never reached the server, so they are
// always retryable. Structured API errors are classified by status.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return true
}

// IsTerminal reports whether retrying can never succeed without the
// underlying request changing.
func IsTerminal(err error) bool {
	return err != nil && !IsRetryable(err)
}
