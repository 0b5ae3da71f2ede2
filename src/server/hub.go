package server

import (
	"encoding/json"
	"net/http"

	"portfolio-runner/src/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// Backlog lines sent with the initial websocket payload
const initialBacklog = 100

// handleWebsockets is the main Hub loop
func (s *ControlServer) handleWebsockets() {
	for {
		select {
		case <-s.done:
			s.stateMutex.Lock()
			for client := range s.clients {
				delete(s.clients, client)
				close(client.send)
			}
			s.stateMutex.Unlock()
			return

		case client := <-s.register:
			s.stateMutex.Lock()
			s.clients[client] = struct{}{}
			status := s.latestStatus
			s.stateMutex.Unlock()

			// Send initial state on connect: current status plus log backlog
			client.send <- &models.MStatusUpdate{
				Type:    "INITIAL",
				Status:  &status,
				Backlog: s.Ring.GetLatest(initialBacklog),
			}

		case client := <-s.unregister:
			s.stateMutex.Lock()
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				close(client.send)
			}
			s.stateMutex.Unlock()

		case message := <-s.broadcast:
			// Update state and broadcast
			if message.Status != nil {
				s.stateMutex.Lock()
				s.latestStatus = *message.Status
				s.stateMutex.Unlock()
			}

			// Broadcast to all clients
			s.stateMutex.Lock()
			for client := range s.clients {
				select {
				case client.send <- message:
					// Message sent successfully
				default:
					// Client too slow, disconnect to prevent Hub blocking
					delete(s.clients, client)
					close(client.send)
				}
			}
			s.stateMutex.Unlock()
		}
	}
}

// -----------------------------------------------------------------------------
// Status Exchange Interface Implementation
// -----------------------------------------------------------------------------

// PublishStatus queues a process status change for broadcast
func (s *ControlServer) PublishStatus(status models.MProcessStatus) {
	update := &models.MStatusUpdate{
		Type:   "STATUS",
		Status: &status,
	}

	// Non-blocking send: with the buffer exhausted the hub is wedged and
	// dropping a status beat is preferable to stalling the launcher
	select {
	case s.broadcast <- update:
	default:
		s.Logger.Warning("Broadcast queue full, dropping status update")
	}
}

// -----------------------------------------------------------------------------

// PublishLog queues a child output line for broadcast
func (s *ControlServer) PublishLog(line models.MLogLine) {
	update := &models.MStatusUpdate{
		Type: "LOG",
		Log:  &line,
	}

	select {
	case s.broadcast <- update:
	default:
		// Ring still holds the line for /api/logs
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

func (s *ControlServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := &Client{
		hub:  s,
		conn: conn,
		// Buffered channel to prevent blocking the Hub loop
		send: make(chan *models.MStatusUpdate, 256),
	}

	s.register <- client

	// Start goroutines for reading/writing
	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

func (s *ControlServer) HandleClientMessage(client *Client, message []byte) {
	var cmd models.MSubscribeCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		s.Logger.Info("Failed to parse client command: %v, disconnecting client", err)
		client.conn.Close()
		return
	}

	if cmd.Command != "subscribe" {
		return
	}

	backlog := cmd.Backlog
	if backlog <= 0 {
		backlog = initialBacklog
	}

	s.stateMutex.RLock()
	status := s.latestStatus
	s.stateMutex.RUnlock()

	response := &models.MStatusUpdate{
		Type:    "INITIAL",
		Status:  &status,
		Backlog: s.Ring.GetLatest(backlog),
	}

	// Send response to client
	// Use select to avoid blocking if client's send buffer is full
	select {
	case client.send <- response:
	default:
	}
}
