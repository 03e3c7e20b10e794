package controller

import (
	"ai-policydesk-be/internal/dto"
	"ai-policydesk-be/internal/pkg/serverutils"
	"ai-policydesk-be/internal/service"
	"ai-policydesk-be/pkg/rag/agent"

	"github.com/gofiber/fiber/v2"
)

type IHealthController interface {
	RegisterRoutes(r fiber.Router)
	Root(ctx *fiber.Ctx) error
	Health(ctx *fiber.Ctx) error
}

type healthController struct {
	chatService service.IChatService
	version     string
}

func NewHealthController(chatService service.IChatService, version string) IHealthController {
	return &healthController{chatService: chatService, version: version}
}

// RegisterRoutes expects the app root; health lives under /api.
func (c *healthController) RegisterRoutes(r fiber.Router) {
	r.Get("/", c.Root)
	r.Get("/api/health", c.Health)
}

func (c *healthController) Root(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Policy desk API", dto.ServiceInfoResponse{
		Name:    "Multi-agent policy desk",
		Version: c.version,
		Agents:  []string{string(agent.General), string(agent.HR), string(agent.IT)},
	}))
}

// Health answers 503 until the retriever index is built.
func (c *healthController) Health(ctx *fiber.Ctx) error {
	res := c.chatService.Health()
	if res.Status != "healthy" {
		return ctx.Status(fiber.StatusServiceUnavailable).JSON(res)
	}
	return ctx.JSON(res)
}
