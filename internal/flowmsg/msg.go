package flowmsg

import (
	"encoding/json"
	"fmt"

	"github.com/dayflowhq/dayflow-client/internal/utils"
)

const IdSize = 3

// Message is the wire envelope for one live event. Data carries a small
// "what changed" pointer, never the changed records themselves - consumers
// re-fetch authoritative state through the regular HTTP API.
type Message struct {
	Id   string    `json:"id"`
	Type EventType `json:"type"`
	Data any       `json:"data"`
}

// UnmarshalJSON implements the json.Unmarshaler interface for Message
func (m *Message) UnmarshalJSON(data []byte) error {
	// Hold Data raw until the type is known
	type tempMessage struct {
		Id   string          `json:"id"`
		Type EventType       `json:"type"`
		Data json.RawMessage `json:"data"`
	}

	var temp tempMessage
	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}

	m.Id = temp.Id
	m.Type = temp.Type

	// Unmarshal Data based on the message type
	switch m.Type {
	case EventScheduleUpdate:
		var upd ScheduleUpdate
		if err := json.Unmarshal(temp.Data, &upd); err != nil {
			return err
		}
		m.Data = upd
	case EventProgressUpdate:
		var upd ProgressUpdate
		if err := json.Unmarshal(temp.Data, &upd); err != nil {
			return err
		}
		m.Data = upd
	case EventReminder:
		var rem Reminder
		if err := json.Unmarshal(temp.Data, &rem); err != nil {
			return err
		}
		m.Data = rem
	case EventAchievement:
		var ach Achievement
		if err := json.Unmarshal(temp.Data, &ach); err != nil {
			return err
		}
		m.Data = ach
	case EventRequestUpdateAck:
		var ack RequestUpdateAck
		if err := json.Unmarshal(temp.Data, &ack); err != nil {
			return err
		}
		m.Data = ack
	case EventSystem:
		var sys System
		if err := json.Unmarshal(temp.Data, &sys); err != nil {
			return err
		}
		m.Data = sys
	case EventError:
		var e Error
		if err := json.Unmarshal(temp.Data, &e); err != nil {
			return err
		}
		m.Data = e
	default:
		return fmt.Errorf("unknown event type: %q", m.Type)
	}

	return nil
}

func generateID() string {
	return utils.TokenHex(IdSize)
}
