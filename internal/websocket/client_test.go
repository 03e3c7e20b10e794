package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"ai-policydesk-be/internal/dto"
	"ai-policydesk-be/internal/pkg/logger"
	"ai-policydesk-be/pkg/rag/workflow"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, c *Client) []map[string]interface{} {
	t.Helper()
	var frames []map[string]interface{}
	for {
		select {
		case raw, ok := <-c.Send:
			if !ok {
				return frames
			}
			var f map[string]interface{}
			require.NoError(t, json.Unmarshal(raw, &f))
			frames = append(frames, f)
		default:
			return frames
		}
	}
}

func TestDecodeRequest(t *testing.T) {
	id := uuid.New()

	req, err := decodeRequest([]byte(`{"session_id":"` + id.String() + `","message":"hi","agent":"hr"}`))
	require.NoError(t, err)
	assert.Equal(t, id, req.SessionId)

	_, err = decodeRequest([]byte(`{"session_id":"` + id.String() + `","message":""}`))
	assert.Error(t, err)

	_, err = decodeRequest([]byte(`not json`))
	assert.ErrorContains(t, err, "invalid request frame")
}

func TestClient_TurnLoop(t *testing.T) {
	handle := func(_ context.Context, req *dto.ChatRequest, sink workflow.Emitter) (*dto.ChatResponse, error) {
		if req.Message == "fail" {
			return nil, errors.New("server not ready")
		}
		require.NoError(t, sink.Token("[IT Support] "))
		require.NoError(t, sink.Reset())
		require.NoError(t, sink.Token("Use the VPN."))
		return &dto.ChatResponse{Agent: "it", WorkflowPath: []string{"IT Entry"}, Sources: []dto.SourceDTO{}}, nil
	}
	c := newClient(NewHub(logger.NewNopLogger()), nil, handle, logger.NewNopLogger())

	c.requests <- &dto.ChatRequest{SessionId: uuid.New(), Message: "vpn?"}
	c.requests <- &dto.ChatRequest{SessionId: uuid.New(), Message: "fail"}
	close(c.requests)
	c.turnLoop()

	frames := drain(t, c)
	require.Len(t, frames, 5)
	assert.Equal(t, "token", frames[0]["type"])
	assert.Equal(t, "reset", frames[1]["type"])
	assert.Equal(t, "Use the VPN.", frames[2]["content"])
	assert.Equal(t, "complete", frames[3]["type"])
	assert.Equal(t, "it", frames[3]["agent"])
	assert.Equal(t, "error", frames[4]["type"])
	assert.Equal(t, "server not ready", frames[4]["error"])
}

func TestClient_ClosedClientRejectsTokens(t *testing.T) {
	c := newClient(NewHub(logger.NewNopLogger()), nil, nil, logger.NewNopLogger())

	c.close()
	c.close()

	assert.ErrorIs(t, c.Token("x"), errClientClosed)
	assert.Error(t, c.ctx.Err())
}

func TestClient_FullBufferDisconnects(t *testing.T) {
	c := newClient(NewHub(logger.NewNopLogger()), nil, nil, logger.NewNopLogger())

	for i := 0; i < sendBuffer; i++ {
		require.NoError(t, c.Token("x"))
	}

	assert.ErrorIs(t, c.Token("overflow"), errClientClosed)
	assert.Error(t, c.ctx.Err())
}

func TestHub_Shutdown(t *testing.T) {
	hub := NewHub(logger.NewNopLogger())
	go hub.Run()

	c := newClient(hub, nil, nil, logger.NewNopLogger())
	hub.add(c)
	assert.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 5*time.Millisecond)

	hub.Shutdown()

	assert.ErrorIs(t, c.Token("x"), errClientClosed)
	hub.remove(c) // must not block after shutdown
}

// fakeConn reads the queued frames then fails, and records writes. Any use
// after released is set counts as a use of a recycled connection.
type fakeConn struct {
	mu         sync.Mutex
	reads      [][]byte
	written    []int
	released   bool
	closed     bool
	afterRelease int
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.reads) == 0 {
		return 0, nil, errors.New("peer gone")
	}
	next := f.reads[0]
	f.reads = f.reads[1:]
	return websocket.TextMessage, next, nil
}

func (f *fakeConn) WriteMessage(messageType int, _ []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.released {
		f.afterRelease++
	}
	f.written = append(f.written, messageType)
	return nil
}

func (f *fakeConn) SetWriteDeadline(time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.released {
		f.afterRelease++
	}
	return nil
}

func (f *fakeConn) SetReadLimit(int64)                {}
func (f *fakeConn) SetReadDeadline(time.Time) error   { return nil }
func (f *fakeConn) SetPongHandler(func(string) error) {}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = true
}

func TestServeWs_ReturnsAfterWriterStops(t *testing.T) {
	hub := NewHub(logger.NewNopLogger())
	go hub.Run()
	defer hub.Shutdown()

	conn := &fakeConn{reads: [][]byte{[]byte("not json")}}
	ServeWs(hub, conn, nil, logger.NewNopLogger())
	conn.release()

	time.Sleep(20 * time.Millisecond)
	conn.mu.Lock()
	defer conn.mu.Unlock()
	assert.Zero(t, conn.afterRelease)
	require.NotEmpty(t, conn.written)
	assert.Equal(t, websocket.CloseMessage, conn.written[len(conn.written)-1])
}

func TestClient_WaitWriterClosesStuckConn(t *testing.T) {
	conn := &fakeConn{}
	c := newClient(NewHub(logger.NewNopLogger()), conn, nil, logger.NewNopLogger())
	go func() {
		time.Sleep(10 * time.Millisecond)
		close(c.done)
	}()

	finished := make(chan struct{})
	go func() {
		c.waitWriter(time.Millisecond)
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("waitWriter did not return after writer stopped")
	}
	conn.mu.Lock()
	defer conn.mu.Unlock()
	assert.True(t, conn.closed)
}
