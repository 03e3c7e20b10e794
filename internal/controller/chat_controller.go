package controller

import (
	"bufio"
	"context"
	"errors"
	"time"

	"ai-policydesk-be/internal/dto"
	"ai-policydesk-be/internal/pkg/logger"
	"ai-policydesk-be/internal/pkg/serverutils"
	"ai-policydesk-be/internal/service"
	internalWS "ai-policydesk-be/internal/websocket"
	"ai-policydesk-be/pkg/rag/workflow"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// Upper bound for one streamed turn; the stream writer outlives the
// request context.
const streamTimeout = 5 * time.Minute

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Chat(ctx *fiber.Ctx) error
	Stream(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
	hub         *internalWS.Hub
	logger      logger.ILogger
}

func NewChatController(chatService service.IChatService, hub *internalWS.Hub, log logger.ILogger) IChatController {
	return &chatController{
		chatService: chatService,
		hub:         hub,
		logger:      log,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat")
	h.Post("", c.Chat)
	h.Post("stream", c.Stream)
	h.Use("ws", func(ctx *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(ctx) {
			return ctx.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	h.Get("ws", websocket.New(c.serveWs))
}

func (c *chatController) parseRequest(ctx *fiber.Ctx) (*dto.ChatRequest, error) {
	var req dto.ChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid request body: "+err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return nil, err
	}
	return &req, nil
}

func (c *chatController) Chat(ctx *fiber.Ctx) error {
	req, err := c.parseRequest(ctx)
	if err != nil {
		return err
	}

	res, err := c.chatService.SendChat(ctx.UserContext(), req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Chat response", res))
}

// Stream answers with server-sent events. Request errors found before the
// turn starts still get a normal JSON error response.
func (c *chatController) Stream(ctx *fiber.Ctx) error {
	req, err := c.parseRequest(ctx)
	if err != nil {
		return err
	}
	if health := c.chatService.Health(); health.Status != "healthy" {
		return service.ErrSystemNotReady
	}

	ctx.Set("Content-Type", "text/event-stream")
	ctx.Set("Cache-Control", "no-cache")
	ctx.Set("Connection", "keep-alive")
	ctx.Set("X-Accel-Buffering", "no")

	ctx.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		turnCtx, cancel := context.WithTimeout(context.Background(), streamTimeout)
		defer cancel()

		res, err := c.chatService.StreamChat(turnCtx, req, service.TransportSSE, &sseSink{w: w})
		if err != nil {
			if errors.Is(err, service.ErrClientDisconnected) {
				return
			}
			c.logger.Warn("CHAT", "Stream ended with error", map[string]interface{}{
				"session_id": req.SessionId.String(),
				"error":      err.Error(),
			})
			_ = serverutils.WriteSSE(w, dto.StreamEventError, dto.StreamErrorEvent{Type: dto.StreamEventError, Error: err.Error()})
			return
		}

		_ = serverutils.WriteSSE(w, dto.StreamEventComplete, dto.StreamCompleteEvent{
			Type:               dto.StreamEventComplete,
			Agent:              res.Agent,
			Sources:            res.Sources,
			NeedsClarification: res.NeedsClarification,
			WorkflowPath:       res.WorkflowPath,
		})
	})
	return nil
}

func (c *chatController) serveWs(conn *websocket.Conn) {
	handle := func(ctx context.Context, req *dto.ChatRequest, sink workflow.Emitter) (*dto.ChatResponse, error) {
		return c.chatService.StreamChat(ctx, req, service.TransportWebSocket, sink)
	}
	internalWS.ServeWs(c.hub, conn, handle, c.logger)
}

// sseSink writes each fragment as its own event; a failed flush means the
// client has gone.
type sseSink struct {
	w *bufio.Writer
}

func (s *sseSink) Token(fragment string) error {
	return serverutils.WriteSSE(s.w, dto.StreamEventToken, dto.StreamTokenEvent{Content: fragment, Type: dto.StreamEventToken})
}

func (s *sseSink) Reset() error {
	return serverutils.WriteSSE(s.w, dto.StreamEventReset, dto.StreamResetEvent{Type: dto.StreamEventReset})
}
