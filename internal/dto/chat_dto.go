package dto

// ChatMessage is one prior turn of the conversation as the client stores it.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Message     string        `json:"message"`
	ChatHistory []ChatMessage `json:"chat_history,omitempty"`
}
