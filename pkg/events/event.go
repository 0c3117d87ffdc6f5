package events

import "time"

// Event is the contract for analytics events emitted by the agent.
type Event interface {
	// EventType returns the unique code for this event (e.g., "TURN_COMPLETED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

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

const (
	EventTurnCompleted  = "TURN_COMPLETED"
	EventSearchFellBack = "SEARCH_FELL_BACK"
)

// NewTurnCompleted describes one finished chat turn: which routing branch
// handled it and how much output it produced.
func NewTurnCompleted(category string, contextLength, responseLength, commandCount int) Event {
	return BaseEvent{
		Type: EventTurnCompleted,
		Data: map[string]interface{}{
			"category":        category,
			"context_length":  contextLength,
			"response_length": responseLength,
			"command_count":   commandCount,
		},
		OccurredAt: time.Now(),
	}
}

// NewSearchFellBack marks a hybrid search that degraded to text matching.
func NewSearchFellBack(query string, filters map[string]any) Event {
	return BaseEvent{
		Type: EventSearchFellBack,
		Data: map[string]interface{}{
			"query":   query,
			"filters": filters,
		},
		OccurredAt: time.Now(),
	}
}
