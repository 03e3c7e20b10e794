package serverutils

import (
	"errors"

	"ai-policydesk-be/internal/service"
	"ai-policydesk-be/pkg/rag/workflow"

	"github.com/gofiber/fiber/v2"
)

// StatusFor maps domain errors onto HTTP status codes.
func StatusFor(err error) int {
	var fe *fiber.Error
	var ve *ValidationError

	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.As(err, &ve):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrSessionNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrSystemNotReady):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, workflow.ErrPortFailure):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandlerMiddleware turns errors returned by handlers into the
// standard error envelope.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if err == nil {
			return nil
		}

		code := StatusFor(err)
		body := ErrorResponse(code, err.Error())

		var ve *ValidationError
		if errors.As(err, &ve) {
			body.Data = ve.Fields
		}
		return c.Status(code).JSON(body)
	}
}
