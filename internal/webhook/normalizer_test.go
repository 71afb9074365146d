package webhook

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePayloadMalformed(t *testing.T) {
	_, err := ParsePayload([]byte("not json at all"))
	require.Error(t, err)

	var malformed *MalformedEventError
	assert.ErrorAs(t, err, &malformed)
}

func TestParsePayloadSingleMessage(t *testing.T) {
	body := []byte(`{
		"object": "instagram",
		"entry": [{
			"id": "17841400000000000",
			"time": 1700000000000,
			"messaging": [{
				"sender": {"id": "user_1"},
				"recipient": {"id": "biz_1"},
				"timestamp": 1700000000123,
				"message": {"mid": "mid.abc", "text": "hello"}
			}]
		}]
	}`)

	p, err := ParsePayload(body)
	require.NoError(t, err)

	events := p.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "user_1", events[0].SenderID)
	assert.Equal(t, "biz_1", events[0].RecipientID)
	assert.Equal(t, "mid.abc", events[0].MessageID)
	assert.Equal(t, "hello", events[0].Text)
	assert.Equal(t, time.UnixMilli(1700000000123), events[0].Timestamp)
}

func TestEventsSkipsNonMessageEvents(t *testing.T) {
	// Delivery receipts and typing indicators carry no message object
	// and must be dropped silently.
	body := []byte(`{
		"object": "instagram",
		"entry": [{
			"id": "e1",
			"time": 1,
			"messaging": [
				{"sender": {"id": "u1"}, "recipient": {"id": "b1"}, "timestamp": 1},
				{"sender": {"id": "u2"}, "recipient": {"id": "b1"}, "timestamp": 2,
				 "message": {"mid": "mid.1", "text": "hi"}}
			]
		}]
	}`)

	p, err := ParsePayload(body)
	require.NoError(t, err)

	events := p.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "mid.1", events[0].MessageID)
}

func TestEventsBatchedEntries(t *testing.T) {
	body := []byte(`{
		"object": "instagram",
		"entry": [
			{"id": "e1", "time": 1, "messaging": [
				{"sender": {"id": "u1"}, "recipient": {"id": "b1"}, "timestamp": 1,
				 "message": {"mid": "mid.1", "text": "one"}}
			]},
			{"id": "e2", "time": 2, "messaging": [
				{"sender": {"id": "u2"}, "recipient": {"id": "b1"}, "timestamp": 2,
				 "message": {"mid": "mid.2", "text": "two"}}
			]}
		]
	}`)

	p, err := ParsePayload(body)
	require.NoError(t, err)
	assert.Len(t, p.Events(), 2)
}

func TestEventsMissingOptionalFields(t *testing.T) {
	// A message without text or sender degrades to zero values rather
	// than failing.
	body := []byte(`{
		"object": "instagram",
		"entry": [{"id": "e1", "time": 1, "messaging": [
			{"timestamp": 5, "message": {"mid": "mid.x"}}
		]}]
	}`)

	p, err := ParsePayload(body)
	require.NoError(t, err)

	events := p.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "mid.x", events[0].MessageID)
	assert.Empty(t, events[0].SenderID)
	assert.Empty(t, events[0].Text)
}

func TestEventsEmptyPayload(t *testing.T) {
	p, err := ParsePayload([]byte(`{"object": "instagram", "entry": []}`))
	require.NoError(t, err)
	assert.Empty(t, p.Events())
}
