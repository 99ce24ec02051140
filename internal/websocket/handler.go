package websocket

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/crewhq/marketing-crew/internal/events"
	"github.com/crewhq/marketing-crew/internal/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The dashboard is served from the same origin; cross-origin observers
	// are allowed because the channel is read-only.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleWebSocket upgrades the connection and attaches it to the hub.
func HandleWebSocket(hub *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Logger.Warn().Err(err).Msg("Websocket upgrade error")
		return
	}

	client := &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 256),
	}

	client.hub.register <- client

	go client.WritePump()
	go client.ReadPump()
}

// Subscriber returns an event-bus subscriber that broadcasts every event as
// a JSON frame. This is the push transport the runner knows nothing about.
func Subscriber(hub *Hub) events.Subscriber {
	return events.SubscriberFunc(func(ev events.Event) {
		message, err := json.Marshal(ev)
		if err != nil {
			logger.Logger.Warn().Err(err).Msg("Failed to marshal event")
			return
		}
		hub.Broadcast(message)
	})
}

// BroadcastJobUpdate pushes a full job snapshot to all connected clients.
func BroadcastJobUpdate(hub *Hub, job any) {
	message, err := json.Marshal(map[string]any{
		"type": "job_update",
		"data": job,
	})
	if err != nil {
		logger.Logger.Warn().Err(err).Msg("Failed to marshal job update")
		return
	}

	hub.Broadcast(message)
}
