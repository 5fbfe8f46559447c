package http

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"song-trivia-service/internal/app"
)

// WSHandler runs one goroutine-pair per connection: a reader feeding the
// select loop, and the loop itself multiplexing inbound submissions, room
// change signals and the cooperative poll tick.
type WSHandler struct {
	service      *app.RoomService
	upgrader     websocket.Upgrader
	pollInterval time.Duration
}

func NewWSHandler(service *app.RoomService, pollInterval time.Duration) *WSHandler {
	if pollInterval <= 0 {
		pollInterval = 100 * time.Millisecond
	}
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pollInterval: pollInterval,
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type submitPayload struct {
	Choice   int   `json:"choice"`
	OffsetMs int64 `json:"offsetMs"`
}

// ServeWS upgrades the request and runs the connection's session loop until
// the peer disconnects. Joining happens on connect, leaving on any exit
// path; a protocol error tears down only this connection.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	userID := r.URL.Query().Get("userId")
	name := r.URL.Query().Get("name")
	if userID == "" || name == "" {
		http.Error(w, "missing userId or name", http.StatusBadRequest)
		return
	}

	room, err := h.service.Room(roomID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel := room.Subscribe()
	defer cancel()

	room.Join(userID, name)
	defer room.Leave(userID)

	done := make(chan struct{})
	defer close(done)

	inbound := make(chan inboundMessage)
	go func() {
		defer close(inbound)
		for {
			var msg inboundMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			select {
			case inbound <- msg:
			case <-done:
				return
			}
		}
	}()

	ticker := time.NewTicker(h.pollInterval)
	defer ticker.Stop()

	// initial render so the client sees the room before any change
	if err := conn.WriteJSON(renderSnapshot(room.Snapshot())); err != nil {
		return
	}

	for {
		select {
		case msg, ok := <-inbound:
			if !ok {
				// connection closed or malformed frame
				return
			}
			h.handleClientMessage(conn, room, userID, msg)
		case <-updates:
			if err := conn.WriteJSON(renderSnapshot(room.Snapshot())); err != nil {
				return
			}
		case <-ticker.C:
			room.PeriodicUpdate()
		}
	}
}

func (h *WSHandler) handleClientMessage(conn *websocket.Conn, room *app.Room, userID string, msg inboundMessage) {
	switch msg.Type {
	case "Submit":
		var payload submitPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "Error", Payload: errorPayload{Message: "invalid submit payload"}})
			return
		}
		room.Submit(userID, payload.Choice, payload.OffsetMs)
	default:
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "Error", Payload: errorPayload{Message: "unsupported message type"}})
	}
}
