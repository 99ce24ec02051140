package nats

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/crewhq/marketing-crew/internal/events"
	"github.com/crewhq/marketing-crew/internal/logger"
)

// Client is the API server side of the NATS bridge: it publishes dispatch
// notifications and relays worker events to local subscribers.
type Client struct {
	conn *nats.Conn
}

func NewClient(url string) (*Client, error) {
	if url == "" {
		url = nats.DefaultURL
	}

	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &Client{conn: conn}, nil
}

// PublishDispatch announces a newly enqueued job. Fire-and-forget.
func (c *Client) PublishDispatch(msg *DispatchMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal dispatch message: %w", err)
	}

	if err := c.conn.Publish(DispatchSubject, data); err != nil {
		return fmt.Errorf("failed to publish dispatch: %w", err)
	}

	return nil
}

// SubscribeEvents forwards worker-emitted events to the handler, typically
// the websocket hub subscriber.
func (c *Client) SubscribeEvents(handler func(ev events.Event)) error {
	_, err := c.conn.Subscribe(EventsSubject, func(msg *nats.Msg) {
		var ev events.Event
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			logger.Logger.Warn().Err(err).Msg("Dropping malformed event message")
			return
		}
		handler(ev)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to events: %w", err)
	}
	return nil
}

func (c *Client) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}
