package server

import (
	"encoding/json"
	"net/http"

	"jpx-history/src/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// handleWebsockets is the main Hub loop
func (s *APIServer) handleWebsockets() {
	for {
		select {
		case client := <-s.register:
			s.clientsMu.Lock()
			s.clients[client] = struct{}{}
			s.clientsMu.Unlock()

			// Replay the last event on connect
			s.stateMutex.RLock()
			if s.latestFrame != nil {
				client.trySend(s.latestFrame)
			}
			s.stateMutex.RUnlock()

		case client := <-s.unregister:
			s.dropClient(client)

		case event := <-s.broadcast:
			frame, err := json.Marshal(event)
			if err != nil {
				s.Logger.Error("encoding %s event: %v", event.Type, err)
				continue
			}
			s.stateMutex.Lock()
			s.latestEvent = event
			s.latestFrame = frame
			s.stateMutex.Unlock()

			s.clientsMu.RLock()
			var slow []*wsClient
			for client := range s.clients {
				if !client.trySend(frame) {
					// Client too slow, disconnect to prevent Hub blocking
					slow = append(slow, client)
				}
			}
			s.clientsMu.RUnlock()

			for _, client := range slow {
				s.dropClient(client)
			}

		case <-s.quit:
			s.clientsMu.Lock()
			for client := range s.clients {
				delete(s.clients, client)
				client.closeQueue()
			}
			s.clientsMu.Unlock()
			return
		}
	}
}

func (s *APIServer) dropClient(client *wsClient) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	if _, ok := s.clients[client]; ok {
		delete(s.clients, client)
		client.closeQueue()
	}
}

// Connections returns the number of attached websocket clients.
func (s *APIServer) Connections() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// -----------------------------------------------------------------------------
// Event Sink Implementation
// -----------------------------------------------------------------------------

// Publish queues a batch progress event for all clients. It never blocks; when
// the queue is full the event is dropped.
func (s *APIServer) Publish(event models.MProgressEvent) {
	ev := event
	select {
	case s.broadcast <- &ev:
	default:
		s.Logger.Warning("event queue full, dropped %s event for run %s", event.Type, event.RunID)
	}
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *APIServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := newWSClient(s, conn)

	select {
	case s.register <- client:
	case <-s.quit:
		conn.Close()
		return
	}

	go client.deliver()
	go client.listen()
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

// clientCommand is what websocket clients may send, e.g. {"command":"status"}.
type clientCommand struct {
	Command string `json:"command"`
}

func (s *APIServer) handleClientMessage(client *wsClient, message []byte) {
	var cmd clientCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		s.Logger.Info("Failed to parse client command: %v, disconnecting client", err)
		client.conn.Close()
		return
	}

	if cmd.Command != "status" {
		return
	}

	response := gin.H{"type": "STATUS", "connections": s.Connections(), "last_batch": nil}
	if summary, ok := s.Status(); ok {
		summary.Outcomes = nil
		response["last_batch"] = summary
	}

	frame, err := json.Marshal(response)
	if err != nil {
		s.Logger.Error("encoding status: %v", err)
		return
	}
	client.trySend(frame)
}
