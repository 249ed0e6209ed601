package flowmsg

// ScheduleUpdate points at a schedule that changed server-side.
type ScheduleUpdate struct {
	ScheduleId string `json:"sid"`
	Date       string `json:"date,omitempty"`
	ChangedBy  string `json:"by,omitempty"`
}

func NewScheduleUpdate(scheduleId, date, changedBy string) *Message {
	return &Message{
		Id:   generateID(),
		Type: EventScheduleUpdate,
		Data: &ScheduleUpdate{
			ScheduleId: scheduleId,
			Date:       date,
			ChangedBy:  changedBy,
		},
	}
}
