package websocket

import (
	"ai-policydesk-be/internal/pkg/logger"
)

// ServeWs handles one chat websocket until the peer goes away. It returns
// only after writePump has let go of conn, because the caller recycles it.
func ServeWs(hub *Hub, conn Conn, handle TurnHandler, log logger.ILogger) {
	client := newClient(hub, conn, handle, log)
	client.Hub.add(client)

	go client.writePump()
	go client.turnLoop()
	client.readPump() // Run readPump in current goroutine (handler)
	client.waitWriter(2 * writeWait)
}
