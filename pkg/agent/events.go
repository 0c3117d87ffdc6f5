package agent

import "nutriplan-llm-be/pkg/agent/command"

// Event statuses streamed back to the client while a turn is processed.
const (
	StatusThinking = "thinking"
	StatusToken    = "token"
	StatusDone     = "done"
	StatusError    = "error"
)

// Event is one item in the turn's progress stream. Thinking events carry
// Message, token events carry Content, the final done event carries the
// extracted Commands.
type Event struct {
	Status   string            `json:"status"`
	Message  string            `json:"message,omitempty"`
	Content  string            `json:"content,omitempty"`
	Commands []command.Command `json:"commands,omitempty"`
}

func thinking(message string) Event {
	return Event{Status: StatusThinking, Message: message}
}

func token(content string) Event {
	return Event{Status: StatusToken, Content: content}
}

func done(commands []command.Command) Event {
	return Event{Status: StatusDone, Commands: commands}
}

func errorEvent(message string) Event {
	return Event{Status: StatusError, Message: message}
}
