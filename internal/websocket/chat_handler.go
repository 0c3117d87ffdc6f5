package websocket

import (
	"context"
	"encoding/json"

	"nutriplan-llm-be/internal/dto"
	"nutriplan-llm-be/internal/pkg/logger"
	"nutriplan-llm-be/pkg/agent"
	"nutriplan-llm-be/pkg/llm"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// chatFrame is what the client sends per turn over the socket. The token
// travels in the frame because browsers cannot set headers on websockets.
type chatFrame struct {
	Message     string            `json:"message"`
	ChatHistory []dto.ChatMessage `json:"chat_history,omitempty"`
	AuthToken   string            `json:"auth_token,omitempty"`
}

// ChatHandler serves chat turns over a websocket as an alternative to the
// NDJSON HTTP stream. One frame in, a stream of event frames out.
type ChatHandler struct {
	agent  *agent.MealPlannerAgent
	logger logger.ILogger
}

func NewChatHandler(mealPlannerAgent *agent.MealPlannerAgent, sysLog logger.ILogger) *ChatHandler {
	return &ChatHandler{agent: mealPlannerAgent, logger: sysLog}
}

// Upgrade gates the route so only websocket requests reach the handler.
func Upgrade(ctx *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(ctx) {
		return ctx.Next()
	}
	return fiber.ErrUpgradeRequired
}

func (h *ChatHandler) Serve(conn *websocket.Conn) {
	defer conn.Close()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var frame chatFrame
		if err := json.Unmarshal(payload, &frame); err != nil || frame.Message == "" {
			h.logger.Warn("ChatWs", "Invalid chat frame received", nil)
			h.writeEvent(conn, agent.Event{Status: agent.StatusError, Message: "Invalid chat frame"})
			continue
		}

		ctx, cancel := context.WithCancel(context.Background())
		history := make([]llm.Message, 0, len(frame.ChatHistory))
		for _, msg := range frame.ChatHistory {
			history = append(history, llm.Message{Role: msg.Role, Content: msg.Content})
		}

		for event := range h.agent.Chat(ctx, frame.Message, history, frame.AuthToken) {
			if !h.writeEvent(conn, event) {
				cancel()
				return
			}
		}
		cancel()
	}
}

func (h *ChatHandler) writeEvent(conn *websocket.Conn, event agent.Event) bool {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("ChatWs", "Failed to marshal event", map[string]interface{}{"error": err.Error()})
		return true
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return false
	}
	return true
}
