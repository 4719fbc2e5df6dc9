package amqp

import (
	"encoding/json"
	"time"

	"teamfin/internal/core"
)

// EventMessage carries one domain event on the bus. Consumers re-read the
// aggregate from storage when they need more than the event data.
type EventMessage struct {
	core.Event
	PublishedAt time.Time `json:"publishedAt"`
}

// NewEventMessage wraps ev for publishing
func NewEventMessage(ev core.Event) *EventMessage {
	return &EventMessage{
		Event:       ev,
		PublishedAt: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *EventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// EventMessageFromJSON creates a message from JSON bytes
func EventMessageFromJSON(data []byte) (*EventMessage, error) {
	var msg EventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
