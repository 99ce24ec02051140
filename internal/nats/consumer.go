package nats

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/crewhq/marketing-crew/internal/events"
	"github.com/crewhq/marketing-crew/internal/logger"
)

// Consumer subscribes to dispatch notifications on the worker side and
// forwards them to a wake function (typically the pool's claim trigger).
type Consumer struct {
	conn *nats.Conn
	sub  *nats.Subscription
	wake func(jobID string)
}

func NewConsumer(url string, wake func(jobID string)) (*Consumer, error) {
	if url == "" {
		url = nats.DefaultURL
	}

	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &Consumer{conn: conn, wake: wake}, nil
}

func (c *Consumer) Subscribe() error {
	sub, err := c.conn.Subscribe(DispatchSubject, func(msg *nats.Msg) {
		var dispatch DispatchMessage
		if err := json.Unmarshal(msg.Data, &dispatch); err != nil {
			logger.Logger.Warn().Err(err).Msg("Dropping malformed dispatch message")
			return
		}
		c.wake(dispatch.JobID)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to NATS: %w", err)
	}

	c.sub = sub
	return nil
}

// PublishEvent relays a runner event toward the API server. Fire-and-forget:
// a lost event is still observable through the next poll of job state.
func (c *Consumer) PublishEvent(ev events.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		logger.Logger.Warn().Err(err).Msg("Failed to marshal event")
		return
	}
	if err := c.conn.Publish(EventsSubject, data); err != nil {
		logger.Logger.Warn().Err(err).Msg("Failed to publish event")
	}
}

func (c *Consumer) Close() {
	if c.sub != nil {
		c.sub.Unsubscribe()
	}
	if c.conn != nil {
		c.conn.Close()
	}
}
