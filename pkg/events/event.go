package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType is the subject suffix, e.g. "interview.finalized".
	EventType() string

	Payload() map[string]interface{}

	Timestamp() time.Time
}

// BaseEvent is used for events rebuilt from the bus, where only the raw
// payload is known.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}
