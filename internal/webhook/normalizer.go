package webhook

import (
	"encoding/json"
	"fmt"
	"time"
)

// MalformedEventError indicates the webhook envelope could not be parsed.
// The payload is acknowledged anyway so the platform stops redelivering it.
type MalformedEventError struct {
	Reason string
}

func (e *MalformedEventError) Error() string {
	return fmt.Sprintf("malformed webhook payload: %s", e.Reason)
}

// InboundEvent is the normalized form of one incoming direct message
type InboundEvent struct {
	SenderID    string
	RecipientID string
	MessageID   string
	Text        string
	Timestamp   time.Time
}

// Payload models the webhook envelope sent by the platform
type Payload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry is one webhook entry; a single delivery may batch several
type Entry struct {
	ID        string           `json:"id"`
	Time      int64            `json:"time"`
	Messaging []MessagingEvent `json:"messaging"`
}

// MessagingEvent is one sub-event inside an entry. Only events carrying
// a message object are message events; the rest (receipts, typing
// indicators) are ignored.
type MessagingEvent struct {
	Sender    *Participant `json:"sender"`
	Recipient *Participant `json:"recipient"`
	Timestamp int64        `json:"timestamp"`
	Message   *MessageData `json:"message"`
}

// Participant identifies one side of a messaging event
type Participant struct {
	ID string `json:"id"`
}

// MessageData is the message sub-object of a messaging event
type MessageData struct {
	MID  string `json:"mid"`
	Text string `json:"text"`
}

// ParsePayload decodes a raw webhook body into a Payload. Only envelope
// structure is validated; missing optional fields inside events degrade
// to empty values instead of failing.
func ParsePayload(body []byte) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, &MalformedEventError{Reason: err.Error()}
	}
	return &p, nil
}

// Events flattens the payload into normalized inbound message events,
// dropping sub-events that do not carry a message object.
func (p *Payload) Events() []InboundEvent {
	var events []InboundEvent
	for _, entry := range p.Entry {
		for _, me := range entry.Messaging {
			if me.Message == nil {
				continue
			}
			ev := InboundEvent{
				MessageID: me.Message.MID,
				Text:      me.Message.Text,
				Timestamp: time.UnixMilli(me.Timestamp),
			}
			if me.Sender != nil {
				ev.SenderID = me.Sender.ID
			}
			if me.Recipient != nil {
				ev.RecipientID = me.Recipient.ID
			}
			events = append(events, ev)
		}
	}
	return events
}
