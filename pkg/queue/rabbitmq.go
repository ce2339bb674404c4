package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"avto-sawda/pkg/config"
	"avto-sawda/pkg/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	SyndicationExchange   = "listings"
	SyndicationQueueName  = "listing_syndication"
	SyndicationRoutingKey = "syndication"
	MaxPriority           = 10
)

// ErrDrop tells the consumer to reject a message without requeueing it.
var ErrDrop = errors.New("drop message")

type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *logger.Logger
}

func NewRabbitMQClient(cfg *config.Config, log *logger.Logger) (*Client, error) {
	url := fmt.Sprintf("amqp://%s:%s@%s:%s/",
		cfg.RabbitMQUser,
		cfg.RabbitMQPassword,
		cfg.RabbitMQHost,
		cfg.RabbitMQPort,
	)

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declareTopology(channel); err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}

	// One unacked delivery at a time keeps remote calls for a listing ordered.
	if err := channel.Qos(1, 0, false); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to set qos: %w", err)
	}

	log.Info("Connected to RabbitMQ at %s:%s", cfg.RabbitMQHost, cfg.RabbitMQPort)

	return &Client{
		conn:    conn,
		channel: channel,
		logger:  log,
	}, nil
}

func declareTopology(channel *amqp.Channel) error {
	err := channel.ExchangeDeclare(
		SyndicationExchange, // name
		"direct",            // type
		true,                // durable
		false,               // auto-deleted
		false,               // internal
		false,               // no-wait
		nil,                 // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	_, err = channel.QueueDeclare(
		SyndicationQueueName, // name
		true,                 // durable
		false,                // delete when unused
		false,                // exclusive
		false,                // no-wait
		amqp.Table{"x-max-priority": MaxPriority},
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := channel.QueueBind(SyndicationQueueName, SyndicationRoutingKey, SyndicationExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Publish sends task as a persistent JSON message. Priority is clamped to 0..MaxPriority.
func (c *Client) Publish(ctx context.Context, task interface{}, priority int) error {
	if priority < 0 {
		priority = 0
	}
	if priority > MaxPriority {
		priority = MaxPriority
	}

	body, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	err = c.channel.PublishWithContext(ctx,
		SyndicationExchange,   // exchange
		SyndicationRoutingKey, // routing key
		false,                 // mandatory
		false,                 // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			Priority:     uint8(priority),
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		c.logger.Error("[RABBITMQ] Failed to publish to exchange=%s: %v", SyndicationExchange, err)
		return fmt.Errorf("failed to publish message: %w", err)
	}

	c.logger.Debug("[RABBITMQ] Published task to queue=%s: %s", SyndicationQueueName, string(body))
	return nil
}

// Consume delivers message bodies to handler until ctx is done.
// A handler error requeues the message unless it is ErrDrop.
func (c *Client) Consume(ctx context.Context, handler func(ctx context.Context, body []byte) error) error {
	msgs, err := c.channel.Consume(
		SyndicationQueueName, // queue
		"",                   // consumer
		false,                // auto-ack
		false,                // exclusive
		false,                // no-local
		false,                // no-wait
		nil,                  // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("[RABBITMQ] Started consuming from queue: %s", SyndicationQueueName)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					c.logger.Warn("[RABBITMQ] Delivery channel closed for queue %s", SyndicationQueueName)
					return
				}
				c.dispatch(ctx, msg, handler)
			}
		}
	}()

	return nil
}

func (c *Client) dispatch(ctx context.Context, msg amqp.Delivery, handler func(ctx context.Context, body []byte) error) {
	err := handler(ctx, msg.Body)
	switch {
	case err == nil:
		msg.Ack(false)
	case errors.Is(err, ErrDrop):
		c.logger.Error("[RABBITMQ] Dropping message: body=%s", string(msg.Body))
		msg.Nack(false, false)
	default:
		c.logger.Error("[RABBITMQ] Handler failed, requeueing: %v", err)
		msg.Nack(false, true)
	}
}

func (c *Client) QueueLength() (int, error) {
	queue, err := c.channel.QueueInspect(SyndicationQueueName)
	if err != nil {
		return 0, err
	}
	return queue.Messages, nil
}
