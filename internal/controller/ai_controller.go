package controller

import (
	"bufio"
	"context"
	"encoding/json"

	"nutriplan-llm-be/internal/constant"
	"nutriplan-llm-be/internal/dto"
	"nutriplan-llm-be/internal/pkg/serverutils"
	"nutriplan-llm-be/pkg/agent"
	"nutriplan-llm-be/pkg/llm"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

type IAiController interface {
	RegisterRoutes(r fiber.Router)
	Chat(ctx *fiber.Ctx) error
}

type aiController struct {
	agent *agent.MealPlannerAgent
}

func NewAiController(mealPlannerAgent *agent.MealPlannerAgent) IAiController {
	return &aiController{agent: mealPlannerAgent}
}

func (c *aiController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/ai/v1")
	h.Use(serverutils.OptionalJwtMiddleware)
	h.Post("chat", c.Chat)
}

// Chat streams agent events as newline-delimited JSON. Each line is one
// event: thinking progress, a response token, or the final done event with
// extracted frontend commands.
func (c *aiController) Chat(ctx *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.NewBadRequestError("Invalid request body")
	}
	if req.Message == "" {
		return serverutils.NewBadRequestError("Message is required")
	}

	authToken, _ := ctx.Locals("auth_token").(string)
	history := toLLMMessages(req.ChatHistory)

	ctx.Set(fiber.HeaderContentType, "application/x-ndjson")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")

	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		// The request context dies with the handler; the turn runs on its
		// own context and stops when the client goes away (write failure).
		turnCtx, cancel := context.WithCancel(context.Background())
		defer cancel()

		encoder := json.NewEncoder(w)
		for event := range c.agent.Chat(turnCtx, req.Message, history, authToken) {
			if err := encoder.Encode(event); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
		}
	}))

	return nil
}

func toLLMMessages(history []dto.ChatMessage) []llm.Message {
	messages := make([]llm.Message, 0, len(history))
	for _, msg := range history {
		role := msg.Role
		if role != constant.ChatMessageRoleUser && role != constant.ChatMessageRoleSystem {
			role = constant.ChatMessageRoleAssistant
		}
		messages = append(messages, llm.Message{Role: role, Content: msg.Content})
	}
	return messages
}
