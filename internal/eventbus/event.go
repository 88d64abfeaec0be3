package eventbus

import "time"

// Event represents an application event published to the bus.
type Event struct {
	Type      string            `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Payload   map[string]string `json:"payload"`
}

// Value returns the payload entry for key, or "" when absent.
func (e Event) Value(key string) string {
	if e.Payload == nil {
		return ""
	}
	return e.Payload[key]
}

// Listener is a function that handles an event.
type Listener func(Event)
