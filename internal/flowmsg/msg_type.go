package flowmsg

// EventType tags every frame on the live-update channel. The set is closed:
// unknown values fail decoding and the frame is dropped by the channel.
type EventType string

const (
	EventScheduleUpdate   EventType = "schedule_update"
	EventProgressUpdate   EventType = "progress_update"
	EventReminder         EventType = "reminder"
	EventAchievement      EventType = "achievement"
	EventRequestUpdateAck EventType = "request_update_ack"
	EventSystem           EventType = "system"
	EventError            EventType = "error"
)

func (t EventType) Valid() bool {
	switch t {
	case EventScheduleUpdate, EventProgressUpdate, EventReminder,
		EventAchievement, EventRequestUpdateAck, EventSystem, EventError:
		return true
	default:
		return false
	}
}

func (t EventType) String() string {
	return string(t)
}
