package flowmsg

// Reminder announces a reminder that fired server-side.
type Reminder struct {
	ReminderId string `json:"rid"`
	Title      string `json:"title"`
	DueAt      string `json:"due,omitempty"`
}

func NewReminder(reminderId, title, dueAt string) *Message {
	return &Message{
		Id:   generateID(),
		Type: EventReminder,
		Data: &Reminder{
			ReminderId: reminderId,
			Title:      title,
			DueAt:      dueAt,
		},
	}
}

// Achievement announces a milestone unlocked for the user.
type Achievement struct {
	AchievementId string `json:"aid"`
	Title         string `json:"title"`
}

func NewAchievement(achievementId, title string) *Message {
	return &Message{
		Id:   generateID(),
		Type: EventAchievement,
		Data: &Achievement{
			AchievementId: achievementId,
			Title:         title,
		},
	}
}
