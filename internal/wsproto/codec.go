package wsproto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/coder/websocket"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/dayflowhq/dayflow-client/internal/flowmsg"
)

// Encoding indicates which wire encoding is used for WebSocket messages.
type Encoding uint8

const (
	EncodingJSON Encoding = iota
	EncodingMsgPack
)

func (e Encoding) String() string {
	switch e {
	case EncodingMsgPack:
		return "msgpack"
	default:
		return "json"
	}
}

// Subprotocol names offered during the websocket handshake.
const (
	SubprotocolJSON    = "dayflow-json"
	SubprotocolMsgPack = "dayflow-msgpack"
)

const (
	magic0  = byte('D')
	magic1  = byte('F')
	version = byte(1)
)

// PreferredEncoding parses a comma-separated preference list (e.g. "msgpack,json").
// Returns EncodingJSON if list is empty/unknown.
func PreferredEncoding(list string) Encoding {
	parts := strings.Split(list, ",")
	for _, p := range parts {
		switch strings.ToLower(strings.TrimSpace(p)) {
		case "msgpack":
			return EncodingMsgPack
		case "json":
			return EncodingJSON
		}
	}
	return EncodingJSON
}

// EncodingFromSubprotocol maps a negotiated subprotocol to its encoding.
// An empty or unknown subprotocol means legacy JSON.
func EncodingFromSubprotocol(subprotocol string) Encoding {
	if subprotocol == SubprotocolMsgPack {
		return EncodingMsgPack
	}
	return EncodingJSON
}

// Marshal encodes a flowmsg.Message for WebSocket transport.
// JSON uses TextMessage with the plain envelope.
// MsgPack uses BinaryMessage with an envelope: [magic][version][encoding][payload].
func Marshal(msg *flowmsg.Message, enc Encoding) (websocket.MessageType, []byte, error) {
	if enc == EncodingJSON {
		data, err := json.Marshal(msg)
		return websocket.MessageText, data, err
	}

	payload, err := marshalMsgpack(msg)
	if err != nil {
		return websocket.MessageBinary, nil, err
	}

	buf := make([]byte, 4+len(payload))
	buf[0], buf[1], buf[2], buf[3] = magic0, magic1, version, byte(enc)
	copy(buf[4:], payload)
	return websocket.MessageBinary, buf, nil
}

// Unmarshal decodes a WebSocket frame into flowmsg.Message.
// Legacy peers send TextMessage JSON without envelope.
func Unmarshal(typ websocket.MessageType, data []byte) (*flowmsg.Message, Encoding, error) {
	switch typ {
	case websocket.MessageText:
		var msg flowmsg.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, EncodingJSON, err
		}
		return &msg, EncodingJSON, nil

	case websocket.MessageBinary:
		if len(data) < 4 || data[0] != magic0 || data[1] != magic1 {
			return nil, EncodingMsgPack, errors.New("binary message missing DF envelope")
		}
		if data[2] != version {
			return nil, EncodingMsgPack, fmt.Errorf("unsupported ws envelope version: %d", data[2])
		}
		enc := Encoding(data[3])
		payload := data[4:]
		switch enc {
		case EncodingMsgPack:
			msg, err := unmarshalMsgpack(payload)
			return msg, enc, err
		case EncodingJSON:
			// Allow binary JSON envelopes if ever used.
			var msg flowmsg.Message
			if err := json.Unmarshal(payload, &msg); err != nil {
				return nil, enc, err
			}
			return &msg, enc, nil
		default:
			return nil, enc, fmt.Errorf("unknown ws encoding: %d", enc)
		}

	default:
		return nil, EncodingJSON, fmt.Errorf("unsupported websocket message type: %v", typ)
	}
}

type wireMessage struct {
	Id   string            `msgpack:"id"`
	Type flowmsg.EventType `msgpack:"typ"`
	Data []byte            `msgpack:"dat"`
}

func marshalMsgpack(msg *flowmsg.Message) ([]byte, error) {
	var dat []byte
	var err error

	switch msg.Type {
	case flowmsg.EventScheduleUpdate:
		switch v := msg.Data.(type) {
		case flowmsg.ScheduleUpdate:
			dat, err = msgpack.Marshal(&v)
		case *flowmsg.ScheduleUpdate:
			dat, err = msgpack.Marshal(v)
		default:
			return nil, fmt.Errorf("invalid schedule update payload type: %T", msg.Data)
		}
	case flowmsg.EventProgressUpdate:
		switch v := msg.Data.(type) {
		case flowmsg.ProgressUpdate:
			dat, err = msgpack.Marshal(&v)
		case *flowmsg.ProgressUpdate:
			dat, err = msgpack.Marshal(v)
		default:
			return nil, fmt.Errorf("invalid progress update payload type: %T", msg.Data)
		}
	case flowmsg.EventReminder:
		switch v := msg.Data.(type) {
		case flowmsg.Reminder:
			dat, err = msgpack.Marshal(&v)
		case *flowmsg.Reminder:
			dat, err = msgpack.Marshal(v)
		default:
			return nil, fmt.Errorf("invalid reminder payload type: %T", msg.Data)
		}
	case flowmsg.EventAchievement:
		switch v := msg.Data.(type) {
		case flowmsg.Achievement:
			dat, err = msgpack.Marshal(&v)
		case *flowmsg.Achievement:
			dat, err = msgpack.Marshal(v)
		default:
			return nil, fmt.Errorf("invalid achievement payload type: %T", msg.Data)
		}
	case flowmsg.EventRequestUpdateAck:
		switch v := msg.Data.(type) {
		case flowmsg.RequestUpdateAck:
			dat, err = msgpack.Marshal(&v)
		case *flowmsg.RequestUpdateAck:
			dat, err = msgpack.Marshal(v)
		default:
			return nil, fmt.Errorf("invalid ack payload type: %T", msg.Data)
		}
	case flowmsg.EventSystem:
		switch v := msg.Data.(type) {
		case flowmsg.System:
			dat, err = msgpack.Marshal(&v)
		case *flowmsg.System:
			dat, err = msgpack.Marshal(v)
		default:
			return nil, fmt.Errorf("invalid system payload type: %T", msg.Data)
		}
	case flowmsg.EventError:
		switch v := msg.Data.(type) {
		case flowmsg.Error:
			dat, err = msgpack.Marshal(&v)
		case *flowmsg.Error:
			dat, err = msgpack.Marshal(v)
		default:
			return nil, fmt.Errorf("invalid error payload type: %T", msg.Data)
		}
	default:
		return nil, fmt.Errorf("unknown event type: %q", msg.Type)
	}
	if err != nil {
		return nil, err
	}

	w := wireMessage{Id: msg.Id, Type: msg.Type, Data: dat}
	return msgpack.Marshal(&w)
}

func unmarshalMsgpack(payload []byte) (*flowmsg.Message, error) {
	var w wireMessage
	dec := msgpack.NewDecoder(bytes.NewReader(payload))
	dec.SetCustomStructTag("msgpack")
	if err := dec.Decode(&w); err != nil {
		return nil, err
	}

	msg := &flowmsg.Message{Id: w.Id, Type: w.Type}
	switch w.Type {
	case flowmsg.EventScheduleUpdate:
		var upd flowmsg.ScheduleUpdate
		if err := msgpack.Unmarshal(w.Data, &upd); err != nil {
			return nil, err
		}
		msg.Data = upd
	case flowmsg.EventProgressUpdate:
		var upd flowmsg.ProgressUpdate
		if err := msgpack.Unmarshal(w.Data, &upd); err != nil {
			return nil, err
		}
		msg.Data = upd
	case flowmsg.EventReminder:
		var rem flowmsg.Reminder
		if err := msgpack.Unmarshal(w.Data, &rem); err != nil {
			return nil, err
		}
		msg.Data = rem
	case flowmsg.EventAchievement:
		var ach flowmsg.Achievement
		if err := msgpack.Unmarshal(w.Data, &ach); err != nil {
			return nil, err
		}
		msg.Data = ach
	case flowmsg.EventRequestUpdateAck:
		var ack flowmsg.RequestUpdateAck
		if err := msgpack.Unmarshal(w.Data, &ack); err != nil {
			return nil, err
		}
		msg.Data = ack
	case flowmsg.EventSystem:
		var sys flowmsg.System
		if err := msgpack.Unmarshal(w.Data, &sys); err != nil {
			return nil, err
		}
		msg.Data = sys
	case flowmsg.EventError:
		var e flowmsg.Error
		if err := msgpack.Unmarshal(w.Data, &e); err != nil {
			return nil, err
		}
		msg.Data = e
	default:
		return nil, fmt.Errorf("unknown event type: %q", w.Type)
	}

	return msg, nil
}
