package serverutils

import (
	"errors"

	"nutriplan-llm-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

type Response struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func SuccessResponse(message string, data any) Response {
	return Response{Message: message, Data: data}
}

// BadRequestError marks a client-side failure so the error handler can map
// it to a 400 instead of a 500.
type BadRequestError struct {
	Message string
}

func (e *BadRequestError) Error() string {
	return e.Message
}

func NewBadRequestError(message string) error {
	return &BadRequestError{Message: message}
}

// ErrorHandlerMiddleware converts errors bubbling out of handlers into JSON
// responses with an appropriate status code. Unexpected errors are logged
// before being masked as a generic 500.
func ErrorHandlerMiddleware(sysLog logger.ILogger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var badRequest *BadRequestError
		if errors.As(err, &badRequest) {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": badRequest.Message})
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(fiber.Map{"message": fiberErr.Message})
		}

		sysLog.Error("HTTP", "Unhandled error", map[string]interface{}{
			"method": ctx.Method(),
			"path":   ctx.Path(),
			"error":  err.Error(),
		})
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Internal server error"})
	}
}
