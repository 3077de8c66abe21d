package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// AMQPPublisher publishes persistent JSON events to a topic exchange, routed by Event.Kind.
type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
}

func dial(url, exchange string) (*amqp091.Connection, *amqp091.Channel, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, nil, fmt.Errorf("failed to declare exchange: %w", err)
	}
	return conn, ch, nil
}

func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, ch, err := dial(url, exchange)
	if err != nil {
		return nil, err
	}
	return &AMQPPublisher{conn: conn, channel: ch, exchange: exchange}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	// amqp091 channels are not safe for concurrent publishing.
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.channel.PublishWithContext(ctx, p.exchange, ev.Kind, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp091.Persistent,
	})
}

func (p *AMQPPublisher) Close() {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

// AMQPConsumer drains a durable queue bound to the exchange.
type AMQPConsumer struct {
	conn    *amqp091.Connection
	channel *amqp091.Channel
	queue   string
	logger  *zap.Logger
}

func NewAMQPConsumer(url, exchange, queue, bindingKey string, logger *zap.Logger) (*AMQPConsumer, error) {
	conn, ch, err := dial(url, exchange)
	if err != nil {
		return nil, err
	}
	q, err := ch.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, bindingKey, exchange, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}
	logger.Info("consumer initialized", zap.String("queue", q.Name), zap.String("binding_key", bindingKey))
	return &AMQPConsumer{conn: conn, channel: ch, queue: q.Name, logger: logger}, nil
}

// Run blocks until ctx is cancelled or the delivery channel closes.
// Every delivery is acked or nacked exactly once.
func (c *AMQPConsumer) Run(ctx context.Context, handle Handler) error {
	deliveries, err := c.channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-deliveries:
			if !ok {
				return nil
			}
			c.process(ctx, msg, handle)
		}
	}
}

func (c *AMQPConsumer) process(ctx context.Context, msg amqp091.Delivery, handle Handler) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("handler panic recovered", zap.Any("panic", r))
			_ = msg.Nack(false, false)
		}
	}()

	ev, err := decode(msg.Body)
	if err != nil {
		c.logger.Error("drop malformed event", zap.Error(err))
		_ = msg.Nack(false, false)
		return
	}
	if err := handle(ctx, ev); err != nil {
		c.logger.Error("handler error", zap.String("kind", ev.Kind), zap.Error(err))
		_ = msg.Nack(false, !msg.Redelivered)
		return
	}
	if err := msg.Ack(false); err != nil {
		c.logger.Error("failed to ack message", zap.Error(err))
	}
}

func (c *AMQPConsumer) Close() {
	if c.channel != nil {
		_ = c.channel.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}
