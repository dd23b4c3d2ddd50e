package amqp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 5 * time.Second

// Client speaks the posting-event topology: one durable direct
// exchange bound to one durable queue, with the routing key equal to
// the queue name.
type Client struct {
	conn     *amqp091.Connection
	ch       *amqp091.Channel
	exchange string
	queue    string
	key      string
}

// NewClient connects to the broker and declares the topology. Declares
// are idempotent, so the server and the worker can both start first.
func NewClient(url, exchange, queue string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	c := &Client{conn: conn, ch: ch, exchange: exchange, queue: queue, key: queue}
	if err := c.declareTopology(); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Client) declareTopology() error {
	if err := c.ch.ExchangeDeclare(c.exchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", c.exchange, err)
	}
	if _, err := c.ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", c.queue, err)
	}
	if err := c.ch.QueueBind(c.queue, c.key, c.exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue %s to exchange %s: %w", c.queue, c.exchange, err)
	}
	return nil
}

// PublishPostingEvent publishes a balance-change announcement.
func (c *Client) PublishPostingEvent(ctx context.Context, ev *PostingEvent) error {
	body, err := ev.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = c.ch.PublishWithContext(ctx, c.exchange, c.key, false, false,
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	slog.InfoContext(ctx, "Published posting event",
		"op", ev.Op,
		"owner_id", ev.OwnerID,
		"posting_id", ev.PostingID,
		"account_ids", ev.AccountIDs,
		"exchange", c.exchange,
		"queue", c.queue)

	return nil
}

// ConsumePostingEvents delivers events to handler until ctx is done.
// Handler failures nack with requeue; undecodable payloads are dropped.
func (c *Client) ConsumePostingEvents(ctx context.Context, handler func(*PostingEvent) error) error {
	msgs, err := c.ch.Consume(
		c.queue, // queue
		"",      // consumer
		false,   // auto-ack (manual ack below)
		false,   // exclusive
		false,   // no-local
		false,   // no-wait
		nil,     // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming posting events", "queue", c.queue)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping event consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			ev, err := PostingEventFromJSON(delivery.Body)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to unmarshal posting event", "error", err)
				delivery.Nack(false, false)
				continue
			}

			if err := handler(ev); err != nil {
				slog.ErrorContext(ctx, "Failed to handle posting event",
					"error", err,
					"op", ev.Op,
					"posting_id", ev.PostingID)
				delivery.Nack(false, true)
				continue
			}

			delivery.Ack(false)
			slog.DebugContext(ctx, "Processed posting event",
				"op", ev.Op,
				"posting_id", ev.PostingID)
		}
	}
}

// Close releases the channel and the connection. Safe on a half-built
// client.
func (c *Client) Close() error {
	var firstErr error
	if c.ch != nil {
		firstErr = c.ch.Close()
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
