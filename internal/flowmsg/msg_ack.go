package flowmsg

// RequestUpdateAck confirms the server accepted an outbound request frame.
type RequestUpdateAck struct {
	OriginalId string `json:"oid"`
}

func NewRequestUpdateAck(originalMsgId string) *Message {
	return &Message{
		Id:   generateID(),
		Type: EventRequestUpdateAck,
		Data: &RequestUpdateAck{OriginalId: originalMsgId},
	}
}

// System carries server liveness/version info pushed on connect.
type System struct {
	ServerVersion string `json:"ver"`
}

func NewSystem(serverVersion string) *Message {
	return &Message{
		Id:   generateID(),
		Type: EventSystem,
		Data: &System{ServerVersion: serverVersion},
	}
}

// Error is a server-side error frame tied to an earlier outbound message.
type Error struct {
	OriginalId string `json:"oid,omitempty"`
	Error      string `json:"err"`
}

func NewError(originalMsgId string, err string) *Message {
	return &Message{
		Id:   generateID(),
		Type: EventError,
		Data: &Error{
			OriginalId: originalMsgId,
			Error:      err,
		},
	}
}
