package flowmsg

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessage_UnmarshalDispatchesOnType(t *testing.T) {
	raw := []byte(`{"id":"a1b2c3","type":"schedule_update","data":{"sid":"sch-42","date":"2025-06-01","by":"phone"}}`)

	var msg Message
	require.NoError(t, json.Unmarshal(raw, &msg))

	assert.Equal(t, "a1b2c3", msg.Id)
	assert.Equal(t, EventScheduleUpdate, msg.Type)

	upd, ok := msg.Data.(ScheduleUpdate)
	require.True(t, ok)
	assert.Equal(t, "sch-42", upd.ScheduleId)
	assert.Equal(t, "2025-06-01", upd.Date)
	assert.Equal(t, "phone", upd.ChangedBy)
}

func TestMessage_UnmarshalReminder(t *testing.T) {
	raw := []byte(`{"id":"x","type":"reminder","data":{"rid":"rem-1","title":"standup","due":"2025-06-01T09:00:00Z"}}`)

	var msg Message
	require.NoError(t, json.Unmarshal(raw, &msg))

	rem, ok := msg.Data.(Reminder)
	require.True(t, ok)
	assert.Equal(t, "rem-1", rem.ReminderId)
	assert.Equal(t, "standup", rem.Title)
}

func TestMessage_UnmarshalUnknownType(t *testing.T) {
	raw := []byte(`{"id":"x","type":"telemetry","data":{}}`)

	var msg Message
	err := json.Unmarshal(raw, &msg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown event type")
}

func TestMessage_UnmarshalMalformed(t *testing.T) {
	var msg Message
	assert.Error(t, json.Unmarshal([]byte(`{"id":`), &msg))
	assert.Error(t, json.Unmarshal([]byte(`{"id":"x","type":"reminder","data":"nope"}`), &msg))
}

func TestNewConstructorsAssignIds(t *testing.T) {
	a := NewScheduleUpdate("sch-1", "", "")
	b := NewScheduleUpdate("sch-1", "", "")

	assert.Len(t, a.Id, IdSize*2) // hex encoded
	assert.NotEqual(t, a.Id, b.Id)
	assert.True(t, a.Type.Valid())
}
