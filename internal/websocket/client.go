package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"ai-policydesk-be/internal/dto"
	"ai-policydesk-be/internal/pkg/logger"
	"ai-policydesk-be/internal/pkg/serverutils"
	"ai-policydesk-be/pkg/rag/workflow"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 * 1024
	sendBuffer     = 256
	queuedTurns    = 4
)

var errClientClosed = errors.New("websocket client closed")

// Conn is the part of *websocket.Conn the pumps use.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// TurnHandler runs one streamed chat turn.
type TurnHandler func(ctx context.Context, req *dto.ChatRequest, sink workflow.Emitter) (*dto.ChatResponse, error)

// Client is a middleman between the websocket connection and the chat
// service. Requests are read by readPump and executed one at a time by
// turnLoop so pongs keep flowing while a turn runs.
type Client struct {
	ID   uuid.UUID
	Hub  *Hub
	Conn Conn

	// Buffered channel of outbound frames.
	Send chan []byte

	// Closed when writePump has stopped touching Conn.
	done chan struct{}

	handle   TurnHandler
	logger   logger.ILogger
	requests chan *dto.ChatRequest

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

func newClient(hub *Hub, conn Conn, handle TurnHandler, log logger.ILogger) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		ID:       uuid.New(),
		Hub:      hub,
		Conn:     conn,
		Send:     make(chan []byte, sendBuffer),
		done:     make(chan struct{}),
		handle:   handle,
		logger:   log,
		requests: make(chan *dto.ChatRequest, queuedTurns),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// enqueue queues one frame. It fails once the client is closed or its
// buffer is full, which the turn sees as a disconnect.
func (c *Client) enqueue(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errClientClosed
	}
	select {
	case c.Send <- data:
		return nil
	default:
		c.logger.Warn("WS", "Client send buffer full, dropping connection", map[string]interface{}{"client_id": c.ID.String()})
		c.closeLocked()
		return errClientClosed
	}
}

// close is idempotent and safe to call from any goroutine.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Client) closeLocked() {
	if c.closed {
		return
	}
	c.closed = true
	c.cancel()
	close(c.Send)
}

func (c *Client) Token(fragment string) error {
	return c.enqueue(dto.StreamTokenEvent{Content: fragment, Type: dto.StreamEventToken})
}

func (c *Client) Reset() error {
	return c.enqueue(dto.StreamResetEvent{Type: dto.StreamEventReset})
}

func (c *Client) sendError(err error) {
	_ = c.enqueue(dto.StreamErrorEvent{Type: dto.StreamEventError, Error: err.Error()})
}

// readPump pumps request frames from the websocket connection to turnLoop.
func (c *Client) readPump() {
	defer func() {
		c.Hub.remove(c)
		c.close()
		close(c.requests)
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("WS", "Unexpected close", map[string]interface{}{
					"client_id": c.ID.String(),
					"error":     err.Error(),
				})
			}
			return
		}

		req, err := decodeRequest(raw)
		if err != nil {
			c.sendError(err)
			continue
		}

		select {
		case c.requests <- req:
		default:
			c.sendError(errors.New("too many queued messages, wait for the current answer"))
		}
	}
}

func decodeRequest(raw []byte) (*dto.ChatRequest, error) {
	var req dto.ChatRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, errors.New("invalid request frame: " + err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return nil, err
	}
	return &req, nil
}

// turnLoop runs queued turns in arrival order.
func (c *Client) turnLoop() {
	for req := range c.requests {
		res, err := c.handle(c.ctx, req, c)
		if err != nil {
			if c.ctx.Err() == nil {
				c.sendError(err)
			}
			continue
		}

		_ = c.enqueue(dto.StreamCompleteEvent{
			Type:               dto.StreamEventComplete,
			Agent:              res.Agent,
			Sources:            res.Sources,
			NeedsClarification: res.NeedsClarification,
			WorkflowPath:       res.WorkflowPath,
		})
	}
}

// waitWriter blocks until writePump has exited. If it is still stuck after
// timeout the connection is closed to fail its pending write.
func (c *Client) waitWriter(timeout time.Duration) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-c.done:
		return
	case <-timer.C:
	}
	c.logger.Warn("WS", "Writer did not stop in time, closing connection", map[string]interface{}{"client_id": c.ID.String()})
	_ = c.Conn.Close()
	<-c.done
}

// writePump pumps frames to the websocket connection, one frame per message.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		close(c.done)
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		}
	}
}
