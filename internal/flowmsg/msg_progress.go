package flowmsg

// ProgressUpdate points at a task whose completion state changed.
type ProgressUpdate struct {
	TaskId    string  `json:"tid"`
	Completed float64 `json:"done"`
}

func NewProgressUpdate(taskId string, completed float64) *Message {
	return &Message{
		Id:   generateID(),
		Type: EventProgressUpdate,
		Data: &ProgressUpdate{
			TaskId:    taskId,
			Completed: completed,
		},
	}
}
