package flowsdk

// ScheduleCreateRequest creates a schedule entry recorded while offline.
type ScheduleCreateRequest struct {
	ClientRef string `json:"client_ref"` // client-side id for dedupe on replay
	Title     string `json:"title"`
	Date      string `json:"date"`
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// ScheduleUpdateRequest replays an offline edit. Last writer wins at the
// server boundary: the server applies this over any concurrent edit.
type ScheduleUpdateRequest struct {
	ScheduleId string         `json:"schedule_id"`
	Fields     map[string]any `json:"fields"`
	EditedAt   string         `json:"edited_at"`
}

// ReminderCreateRequest replays an offline reminder creation.
type ReminderCreateRequest struct {
	ClientRef string `json:"client_ref"`
	Title     string `json:"title"`
	RemindAt  string `json:"remind_at"`
}

// ProgressUpdateRequest replays a task completion change.
type ProgressUpdateRequest struct {
	TaskId    string  `json:"task_id"`
	Completed float64 `json:"completed"`
	MarkedAt  string  `json:"marked_at"`
}

// AttachmentUploadRequest replays an upload queued while offline. Content is
// carried inline; anything that can't be serialized can't sit in the queue.
type AttachmentUploadRequest struct {
	ClientRef   string `json:"client_ref"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Content     []byte `json:"content"`
}

// ReplayResponse is the common acknowledgement envelope for replay calls.
type ReplayResponse struct {
	Id        string `json:"id"`
	ClientRef string `json:"client_ref,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}
